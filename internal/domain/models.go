package domain

// Exam buckets a question can be placed under.
const (
	ExamPrelims  = "prelims"
	ExamMains    = "mains"
	ExamCombined = "combined"
)

// StatusPublished is attached to every record written by the importer.
const StatusPublished = "published"

// CorrectOptions lists the only literals accepted for MCQ.CorrectOption, in slot order.
var CorrectOptions = [4]string{"Option A", "Option B", "Option C", "Option D"}

// IsCorrectOption reports whether v is one of the four correct-option literals.
func IsCorrectOption(v string) bool {
	for _, opt := range CorrectOptions {
		if v == opt {
			return true
		}
	}
	return false
}

// MCQ is the canonical multiple-choice question record.
type MCQ struct {
	ID                   string   `json:"id,omitempty"`
	Exam                 string   `json:"exam"`
	Year                 int      `json:"year"`
	Subject              string   `json:"subject"`
	Test                 string   `json:"test"`
	CoreTopic            string   `json:"coreTopic"`
	RelevantScheduleTest string   `json:"relevantScheduleTest"`
	Question             string   `json:"question"`
	Statements           []string `json:"statements"`
	OptionA              string   `json:"optionA"`
	OptionB              string   `json:"optionB"`
	OptionC              string   `json:"optionC"`
	OptionD              string   `json:"optionD"`
	CorrectOption        string   `json:"correctOption"`
	Explanation          string   `json:"explanation"`
	Status               string   `json:"status,omitempty"`
}

// Fields returns the record content as stored in the document store.
// Audit fields (status, timestamps) are attached by the caller.
func (m MCQ) Fields() map[string]any {
	statements := m.Statements
	if statements == nil {
		statements = []string{}
	}
	return map[string]any{
		"exam":                 m.Exam,
		"year":                 m.Year,
		"subject":              m.Subject,
		"test":                 m.Test,
		"coreTopic":            m.CoreTopic,
		"relevantScheduleTest": m.RelevantScheduleTest,
		"question":             m.Question,
		"statements":           statements,
		"optionA":              m.OptionA,
		"optionB":              m.OptionB,
		"optionC":              m.OptionC,
		"optionD":              m.OptionD,
		"correctOption":        m.CorrectOption,
		"explanation":          m.Explanation,
	}
}

// PYQ is the canonical previous-year (descriptive) question record.
type PYQ struct {
	ID       string `json:"id,omitempty"`
	Exam     string `json:"exam"`
	Year     int    `json:"year"`
	Subject  string `json:"subject"`
	Test     string `json:"test"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Status   string `json:"status,omitempty"`
}

func (p PYQ) Fields() map[string]any {
	return map[string]any{
		"exam":     p.Exam,
		"year":     p.Year,
		"subject":  p.Subject,
		"test":     p.Test,
		"question": p.Question,
		"answer":   p.Answer,
	}
}

// ScheduleDay is one calendar day of a program schedule.
type ScheduleDay struct {
	DateRaw  string         `json:"dateRaw"`
	DateISO  *string        `json:"dateISO"`
	Day      string         `json:"day"`
	Classes  *string        `json:"classes"`
	Targets  []string       `json:"targets"`
	Tests    *string        `json:"tests"`
	Syllabus map[string]any `json:"syllabus"`
}

// Fields returns the stored content of a day, without audit fields.
func (d ScheduleDay) Fields() map[string]any {
	targets := d.Targets
	if targets == nil {
		targets = []string{}
	}
	syllabus := d.Syllabus
	if syllabus == nil {
		syllabus = map[string]any{}
	}
	return map[string]any{
		"dateRaw":  d.DateRaw,
		"dateISO":  optional(d.DateISO),
		"day":      d.Day,
		"classes":  optional(d.Classes),
		"targets":  targets,
		"tests":    optional(d.Tests),
		"syllabus": syllabus,
	}
}

// ProgramSchedule is a normalized schedule document with its days.
type ProgramSchedule struct {
	Program           string        `json:"program"`
	Type              string        `json:"type"`
	Organization      string        `json:"organization"`
	Subject           string        `json:"subject"`
	ProgramKey        string        `json:"programKey"`
	ScheduleStartDate *string       `json:"scheduleStartDate"`
	ScheduleEndDate   *string       `json:"scheduleEndDate"`
	TotalDays         int           `json:"totalDays"`
	Days              []ScheduleDay `json:"days"`
}

// ImportResult summarizes one bulk import run.
type ImportResult struct {
	Total          int      `json:"total"`
	SuccessCount   int      `json:"successCount"`
	FailCount      int      `json:"failCount"`
	DuplicateCount int      `json:"duplicateCount"`
	Errors         []string `json:"errors"`
	SourceURL      string   `json:"sourceUrl,omitempty"`
}

// Capped returns a copy whose error list holds at most limit messages.
func (r ImportResult) Capped(limit int) ImportResult {
	if limit >= 0 && len(r.Errors) > limit {
		r.Errors = append([]string(nil), r.Errors[:limit]...)
	}
	return r
}

// ImportProgress is reported after every processed item of a bulk import.
type ImportProgress struct {
	Index     int    `json:"index"` // 1-based
	Total     int    `json:"total"`
	OK        bool   `json:"ok"`
	Duplicate bool   `json:"duplicate,omitempty"`
	ID        string `json:"id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DeleteResult reports how far a chunked multi-delete got.
type DeleteResult struct {
	Requested       int `json:"requested"`
	Deleted         int `json:"deleted"`
	Chunks          int `json:"chunks"`
	CommittedChunks int `json:"committedChunks"`
}

// ScheduleImportResult reports the parent upsert and per-day outcome.
type ScheduleImportResult struct {
	ScheduleID string `json:"scheduleId"`
	ProgramKey string `json:"programKey"`
	WasCreated bool   `json:"wasCreated"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Unchanged  int    `json:"unchanged"`
	Skipped    int    `json:"skipped"`
}

// BackfillResult reports a placement backfill over one collection.
type BackfillResult struct {
	Collection string `json:"collection"`
	Scanned    int    `json:"scanned"`
	Updated    int    `json:"updated"`
	Unchanged  int    `json:"unchanged"`
}

// Identity is the caller as supplied by the external auth layer.
type Identity struct {
	UID   string
	Email string
	Admin bool
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
