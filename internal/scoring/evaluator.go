// Package scoring holds the pure answer-grading rules of the quiniela engine.
// Evaluate never touches storage and never panics on missing or malformed
// input, so the aggregator can call it blindly for every (participant,
// question) pair.
package scoring

import (
	"fmt"
	"strings"

	"quiniela-scoring-service/internal/domain"
)

// sliderEpsilon bounds the float comparison for an exact slider match.
const sliderEpsilon = 1e-9

// Evaluate grades one participant answer against the official answer for a
// question and returns the awarded points plus a correctness flag.
//
// Absence of either answer always yields (0, false, nil). A value whose kind
// does not fit the question type yields (0, false, *domain.ValidationError);
// callers are expected to log the error and keep the zero score.
func Evaluate(q domain.Question, participant, official domain.AnswerValue) (int, bool, error) {
	if participant.IsAbsent() || official.IsAbsent() {
		return 0, false, nil
	}

	switch q.Type {
	case domain.QuestionFreeText:
		return evaluateFreeText(q, participant, official)
	case domain.QuestionMCSingle:
		return evaluateSingleChoice(q, participant, official)
	case domain.QuestionMCMulti:
		return evaluateMultiChoice(q, participant, official)
	case domain.QuestionOrdering:
		return evaluateOrdering(q, participant, official)
	case domain.QuestionSlider:
		return evaluateSlider(q, participant, official)
	default:
		return 0, false, domain.NewValidationError(q.ID, fmt.Sprintf("unknown question type %q", q.Type))
	}
}

// evaluateFreeText awards MaxScore for a trimmed, case-folded exact match.
func evaluateFreeText(q domain.Question, participant, official domain.AnswerValue) (int, bool, error) {
	if participant.Kind != domain.AnswerText {
		return 0, false, kindMismatch(q, participant.Kind)
	}
	if official.Kind != domain.AnswerText {
		return 0, false, officialKindMismatch(q, official.Kind)
	}

	user := strings.TrimSpace(participant.Text)
	want := strings.TrimSpace(official.Text)
	if user == "" || want == "" {
		return 0, false, nil
	}
	if strings.EqualFold(user, want) {
		return q.MaxScore, true, nil
	}
	return 0, false, nil
}

// evaluateSingleChoice awards TotalScore when the selected option matches the
// official one. An undefined official selection is never correct.
func evaluateSingleChoice(q domain.Question, participant, official domain.AnswerValue) (int, bool, error) {
	if participant.Kind != domain.AnswerSingle {
		return 0, false, kindMismatch(q, participant.Kind)
	}
	if official.Kind != domain.AnswerSingle {
		return 0, false, officialKindMismatch(q, official.Kind)
	}
	if official.OptionID == "" {
		return 0, false, nil
	}
	if participant.OptionID == official.OptionID {
		return q.TotalScore, true, nil
	}
	return 0, false, nil
}

// evaluateMultiChoice sums PointsPerCorrect for each selected option in the
// official set and adds PointsPerIncorrect (a signed delta) for each one
// outside it. Correctness requires exact set equality and a non-empty
// selection: an empty selection is (0, false) even against an empty official
// set.
func evaluateMultiChoice(q domain.Question, participant, official domain.AnswerValue) (int, bool, error) {
	if participant.Kind != domain.AnswerOptionSet {
		return 0, false, kindMismatch(q, participant.Kind)
	}
	if official.Kind != domain.AnswerOptionSet {
		return 0, false, officialKindMismatch(q, official.Kind)
	}

	correctSet := make(map[string]struct{}, len(official.OptionIDs))
	for _, id := range official.OptionIDs {
		correctSet[id] = struct{}{}
	}

	points := 0
	selected := make(map[string]struct{}, len(participant.OptionIDs))
	for _, id := range participant.OptionIDs {
		if _, dup := selected[id]; dup {
			continue
		}
		selected[id] = struct{}{}
		if _, ok := correctSet[id]; ok {
			points += q.PointsPerCorrect
		} else {
			points += q.PointsPerIncorrect
		}
	}

	if len(selected) == 0 {
		return 0, false, nil
	}

	correct := len(selected) == len(correctSet)
	if correct {
		for id := range selected {
			if _, ok := correctSet[id]; !ok {
				correct = false
				break
			}
		}
	}
	return points, correct, nil
}

// evaluateOrdering compares position by position over the overlapping prefix,
// awarding PointsPerPosition per match. The full-order bonus requires equal
// lengths, every position matched, and a positive per-position value; a zero
// per-position value suppresses the bonus.
func evaluateOrdering(q domain.Question, participant, official domain.AnswerValue) (int, bool, error) {
	if participant.Kind != domain.AnswerOrderedList {
		return 0, false, kindMismatch(q, participant.Kind)
	}
	if official.Kind != domain.AnswerOrderedList {
		return 0, false, officialKindMismatch(q, official.Kind)
	}

	// The stored official list and the question's configured item order are
	// equivalent representations; fall back to the configuration when the
	// stored list is empty.
	wanted := official.Items
	if len(wanted) == 0 {
		wanted = q.ItemOrder
	}
	user := participant.Items
	if len(user) == 0 || len(wanted) == 0 {
		return 0, false, nil
	}

	n := len(user)
	if len(wanted) < n {
		n = len(wanted)
	}
	points := 0
	matched := 0
	for i := 0; i < n; i++ {
		if labelsEqual(user[i], wanted[i]) {
			points += q.PointsPerPosition
			matched++
		}
	}

	fullMatch := len(user) == len(wanted) && matched == n
	if fullMatch && q.PointsPerPosition > 0 {
		points += q.BonusFullOrder
	}
	return points, fullMatch, nil
}

// evaluateSlider awards SliderPointsExact for a match within epsilon, or the
// partial points when the distance is inside the inclusive threshold band and
// partial scoring is configured with a non-zero value. The band boundary gets
// the same epsilon slack as the exact match, so float noise at exactly
// threshold distance still earns partial credit.
func evaluateSlider(q domain.Question, participant, official domain.AnswerValue) (int, bool, error) {
	if participant.Kind != domain.AnswerNumeric {
		return 0, false, kindMismatch(q, participant.Kind)
	}
	if official.Kind != domain.AnswerNumeric {
		return 0, false, officialKindMismatch(q, official.Kind)
	}

	d := participant.Number - official.Number
	if d < 0 {
		d = -d
	}
	if d <= sliderEpsilon {
		return q.SliderPointsExact, true, nil
	}
	if q.SliderThresholdPartial != nil && q.SliderPointsPartial != nil &&
		*q.SliderPointsPartial != 0 && d <= *q.SliderThresholdPartial+sliderEpsilon {
		return *q.SliderPointsPartial, true, nil
	}
	return 0, false, nil
}

// labelsEqual compares two ordering labels after trimming and case folding.
func labelsEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func kindMismatch(q domain.Question, got domain.AnswerKind) *domain.ValidationError {
	return domain.NewValidationError(q.ID, fmt.Sprintf("answer kind %q does not fit %s question", got, q.Type))
}

func officialKindMismatch(q domain.Question, got domain.AnswerKind) *domain.ValidationError {
	return domain.NewValidationError(q.ID, fmt.Sprintf("official answer kind %q does not fit %s question", got, q.Type))
}
