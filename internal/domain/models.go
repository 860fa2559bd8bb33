package domain

// QuestionType discriminates the five scoring rules.
type QuestionType string

const (
	QuestionFreeText QuestionType = "FREE_TEXT"
	QuestionMCSingle QuestionType = "MC_SINGLE"
	QuestionMCMulti  QuestionType = "MC_MULTI"
	QuestionOrdering QuestionType = "ORDERING"
	QuestionSlider   QuestionType = "SLIDER"
)

// Question is an immutable view of one quiniela question and its scoring
// parameters. Only the fields matching Type carry meaning; the rest stay at
// their zero value.
type Question struct {
	ID     string       `json:"id"`
	RaceID string       `json:"raceId"`
	Text   string       `json:"text"`
	Type   QuestionType `json:"type"`
	Active bool         `json:"active"`

	// FREE_TEXT
	MaxScore int `json:"maxScore,omitempty"`

	// MC_SINGLE
	TotalScore int `json:"totalScore,omitempty"`

	// MC_MULTI. PointsPerIncorrect is a signed delta and is always applied
	// by addition; a negative stored value subtracts.
	PointsPerCorrect   int `json:"pointsPerCorrect,omitempty"`
	PointsPerIncorrect int `json:"pointsPerIncorrect,omitempty"`

	// ORDERING. ItemOrder holds the labels in the order the administrator
	// configured as correct.
	ItemOrder         []string `json:"itemOrder,omitempty"`
	PointsPerPosition int      `json:"pointsPerPosition,omitempty"`
	BonusFullOrder    int      `json:"bonusFullOrder,omitempty"`

	// SLIDER. Partial credit applies only when both nullable fields are set.
	SliderPointsExact      int      `json:"sliderPointsExact,omitempty"`
	SliderThresholdPartial *float64 `json:"sliderThresholdPartial,omitempty"`
	SliderPointsPartial    *int     `json:"sliderPointsPartial,omitempty"`
}

// OfficialAnswer is the administrator-curated correct answer for a question.
// There is at most one per question.
type OfficialAnswer struct {
	QuestionID string      `json:"questionId"`
	Value      AnswerValue `json:"value"`
}

// ParticipantAnswer is one participant's submission for one question.
// There is at most one per (participant, question).
type ParticipantAnswer struct {
	ParticipantID string      `json:"participantId"`
	QuestionID    string      `json:"questionId"`
	Value         AnswerValue `json:"value"`
}

// ParticipantScore is the derived total for one participant in one race.
// Rows are replaced wholesale on every recompute, never patched, and carry no
// run-dependent state: re-running with unchanged inputs yields identical rows.
type ParticipantScore struct {
	RaceID        string `json:"raceId"`
	ParticipantID string `json:"participantId"`
	Points        int    `json:"points"`
}

// Result summarizes one recompute run for the caller.
type Result struct {
	Success     bool   `json:"success"`
	ScoredCount int    `json:"scoredCount"`
	Message     string `json:"message"`
}
