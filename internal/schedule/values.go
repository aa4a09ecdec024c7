package schedule

import (
	"fmt"
	"math"
	"strconv"
)

// truthy mirrors the loose presence checks applied to schedule payloads:
// null, false, zero and empty strings count as missing.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	default:
		return true
	}
}

// text renders a scalar payload value; missing values render as "".
func text(v any) string {
	if !truthy(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
