package app

import (
	"sort"
	"strings"
	"unicode"

	"exam-prep-service/internal/domain"
)

// GroupBy names the column the MCQ table is grouped on.
type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupYear     GroupBy = "year"
	GroupSubject  GroupBy = "subject"
	GroupCategory GroupBy = "category"
	GroupTest     GroupBy = "test"
	GroupExam     GroupBy = "exam"
)

const defaultPageSize = 20

// ParseGroupBy accepts a group-by name, defaulting to GroupNone.
func ParseGroupBy(s string) GroupBy {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupYear, GroupSubject, GroupCategory, GroupTest, GroupExam:
		return g
	default:
		return GroupNone
	}
}

// MCQTableView is the state of the admin MCQ table. It is a value: every
// operation returns the next state.
type MCQTableView struct {
	Page     int
	PageSize int
	GroupBy  GroupBy
	Selected map[string]struct{}
}

// TablePage is one rendered page of rows.
type TablePage struct {
	Rows       []domain.Document `json:"rows"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	GroupBy    GroupBy           `json:"groupBy"`
	Groups     []string          `json:"groups,omitempty"`

	Selected     []string `json:"selected"`
	AllSelected  bool     `json:"allSelected"`
	SomeSelected bool     `json:"someSelected"`
}

func NewMCQTableView() MCQTableView {
	return MCQTableView{Page: 1, PageSize: defaultPageSize, GroupBy: GroupNone, Selected: map[string]struct{}{}}
}

// PageRows groups rows when asked, clamps the page into range and slices it.
// Selections of ids missing from rows are dropped. The returned view carries
// the clamped page and the pruned selection.
func (v MCQTableView) PageRows(rows []domain.Document) (MCQTableView, TablePage) {
	v = v.Prune(rows)
	if v.PageSize <= 0 {
		v.PageSize = defaultPageSize
	}
	if v.GroupBy == "" {
		v.GroupBy = GroupNone
	}

	working := append([]domain.Document(nil), rows...)
	if v.GroupBy != GroupNone {
		sort.SliceStable(working, func(i, j int) bool {
			return naturalCompare(GroupValue(working[i].Data, v.GroupBy), GroupValue(working[j].Data, v.GroupBy)) < 0
		})
	}

	total := len(working)
	totalPages := (total + v.PageSize - 1) / v.PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if v.Page > totalPages {
		v.Page = totalPages
	}
	if v.Page < 1 {
		v.Page = 1
	}

	start := (v.Page - 1) * v.PageSize
	end := start + v.PageSize
	if end > total {
		end = total
	}
	page := TablePage{
		Rows:       working[start:end],
		Total:      total,
		TotalPages: totalPages,
		Page:       v.Page,
		PageSize:   v.PageSize,
		GroupBy:    v.GroupBy,
		Selected:   v.SelectedIDs(),
	}
	page.AllSelected, page.SomeSelected = v.SelectionState(page.Rows)
	if v.GroupBy != GroupNone {
		var last string
		for i, row := range page.Rows {
			g := GroupValue(row.Data, v.GroupBy)
			if i == 0 || g != last {
				page.Groups = append(page.Groups, g)
				last = g
			}
		}
	}
	return v, page
}

// Toggle selects or deselects one row id.
func (v MCQTableView) Toggle(id string, on bool) MCQTableView {
	selected := make(map[string]struct{}, len(v.Selected)+1)
	for k := range v.Selected {
		selected[k] = struct{}{}
	}
	if on {
		selected[id] = struct{}{}
	} else {
		delete(selected, id)
	}
	v.Selected = selected
	return v
}

// Prune drops selections for rows that no longer exist.
func (v MCQTableView) Prune(rows []domain.Document) MCQTableView {
	present := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		present[r.ID] = struct{}{}
	}
	selected := make(map[string]struct{}, len(v.Selected))
	for id := range v.Selected {
		if _, ok := present[id]; ok {
			selected[id] = struct{}{}
		}
	}
	v.Selected = selected
	return v
}

// SelectedIDs returns the selection in sorted order.
func (v MCQTableView) SelectedIDs() []string {
	ids := make([]string, 0, len(v.Selected))
	for id := range v.Selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectionState reports whether every row of a page is selected, or only some.
func (v MCQTableView) SelectionState(page []domain.Document) (all, some bool) {
	n := 0
	for _, r := range page {
		if _, ok := v.Selected[r.ID]; ok {
			n++
		}
	}
	return len(page) > 0 && n == len(page), n > 0 && n < len(page)
}

// GroupValue is the heading a row is listed under for groupBy.
func GroupValue(data map[string]any, groupBy GroupBy) string {
	switch groupBy {
	case GroupYear:
		return orDefault(textValue(data["year"]), "Unknown Year")
	case GroupSubject:
		return orDefault(textValue(data["subject"]), "Unknown Subject")
	case GroupCategory:
		return orDefault(Category(data), "General")
	case GroupTest:
		return orDefault(RelevantTest(data), "No Relevant Test")
	case GroupExam:
		return orDefault(textValue(data["exam"]), domain.ExamCombined)
	default:
		return ""
	}
}

// Category is the core topic of a row, falling back to a legacy category field.
func Category(data map[string]any) string {
	return strings.TrimSpace(firstValue(data, "coreTopic", "category"))
}

// RelevantTest is the schedule test a row belongs to.
func RelevantTest(data map[string]any) string {
	return strings.TrimSpace(firstValue(data, "relevantScheduleTest", "relevant_schedule_test", "test"))
}

func firstValue(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := textValue(data[k]); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SortByPlacement orders rows by exam, newest year first, subject, then test.
func SortByPlacement(rows []domain.Document) []domain.Document {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Data, rows[j].Data
		if ea, eb := textValue(a["exam"]), textValue(b["exam"]); ea != eb {
			return ea < eb
		}
		if ya, yb := numberValue(a["year"]), numberValue(b["year"]); ya != yb {
			return ya > yb
		}
		if sa, sb := textValue(a["subject"]), textValue(b["subject"]); sa != sb {
			return sa < sb
		}
		return textValue(a["test"]) < textValue(b["test"])
	})
	return rows
}

// naturalCompare orders case-insensitively with digit runs compared as numbers,
// so "Test 2" sorts before "Test 10".
func naturalCompare(a, b string) int {
	ar, br := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			si := i
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			sj := j
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			na := strings.TrimLeft(string(ar[si:i]), "0")
			nb := strings.TrimLeft(string(br[sj:j]), "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if ar[i] != br[j] {
			if ar[i] < br[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ar)-i < len(br)-j:
		return -1
	case len(ar)-i > len(br)-j:
		return 1
	default:
		return 0
	}
}
