// Package survey holds the flattened survey-response data model, the sample
// data generator and the embedded analytical store queried by the SQL agent.
//
// The storage layout is deliberately "flat": one row per answered question,
// every column stored as TEXT. Numeric answers (ratings, scales, age) are
// string numerals and must be CAST in queries; the SQL agent's prompt spells
// this out. This mirrors how exported survey panels usually arrive.
package survey

// QuestionType classifies a survey question.
type QuestionType string

const (
	TypeRating         QuestionType = "rating"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeOpenEnded      QuestionType = "open_ended"
	TypeScale          QuestionType = "scale"
	TypeGrid           QuestionType = "grid"
)

// Question describes one question of a survey catalog entry.
type Question struct {
	ID       string
	Type     QuestionType
	Text     string
	Group    string
	ScaleMin int      // rating/scale only
	ScaleMax int      // rating/scale only
	Options  []string // multiple_choice only
}

// Demographics carries respondent attributes. All values are strings,
// including Age (a numeral).
type Demographics struct {
	Age           string `json:"age"`
	Gender        string `json:"gender"`
	Location      string `json:"location"`
	IncomeBracket string `json:"income_bracket"`
	Education     string `json:"education"`
}

// Response is a single flattened question response: survey metadata, the
// question, the answer and the respondent's demographics in one row.
type Response struct {
	ResponseID string `json:"response_id"`
	UserID     string `json:"user_id"`
	BrandID    string `json:"brand_id"`
	SurveyID   string `json:"survey_id"`
	Timestamp  string `json:"timestamp"`

	QuestionID    string       `json:"question_id"`
	QuestionType  QuestionType `json:"question_type"`
	QuestionText  string       `json:"question_text"`
	QuestionGroup string       `json:"question_group"`

	// Answer is always a string. For rating/scale questions it holds a
	// numeral within [ScaleMin, ScaleMax].
	Answer   string `json:"answer"`
	ScaleMin string `json:"scale_min,omitempty"`
	ScaleMax string `json:"scale_max,omitempty"`
	// Options is the pipe-separated choice list for multiple_choice rows.
	Options string `json:"options,omitempty"`

	Demographics
}
