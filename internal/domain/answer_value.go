package domain

import (
	"encoding/json"
	"fmt"
)

// AnswerKind tags the variant held by an AnswerValue.
type AnswerKind string

const (
	// AnswerAbsent marks a missing answer. It is the zero value, so an
	// unanswered question naturally evaluates as absent.
	AnswerAbsent      AnswerKind = ""
	AnswerText        AnswerKind = "text"
	AnswerSingle      AnswerKind = "option"
	AnswerOptionSet   AnswerKind = "optionSet"
	AnswerOrderedList AnswerKind = "orderedList"
	AnswerNumeric     AnswerKind = "numeric"
)

// AnswerValue is a tagged union with one variant per question type. Values are
// decoded exactly once at the repository boundary; scoring only inspects the
// already-typed fields.
type AnswerValue struct {
	Kind      AnswerKind
	Text      string
	OptionID  string
	OptionIDs []string
	Items     []string
	Number    float64
}

// IsAbsent reports whether no answer was given.
func (v AnswerValue) IsAbsent() bool { return v.Kind == AnswerAbsent }

func TextAnswer(text string) AnswerValue {
	return AnswerValue{Kind: AnswerText, Text: text}
}

func SingleOptionAnswer(optionID string) AnswerValue {
	return AnswerValue{Kind: AnswerSingle, OptionID: optionID}
}

func OptionSetAnswer(optionIDs ...string) AnswerValue {
	return AnswerValue{Kind: AnswerOptionSet, OptionIDs: optionIDs}
}

func OrderedListAnswer(items ...string) AnswerValue {
	return AnswerValue{Kind: AnswerOrderedList, Items: items}
}

func NumericAnswer(value float64) AnswerValue {
	return AnswerValue{Kind: AnswerNumeric, Number: value}
}

// answerValueJSON is the stored wire shape of an AnswerValue.
type answerValueJSON struct {
	Kind      AnswerKind `json:"kind"`
	Text      string     `json:"text,omitempty"`
	OptionID  string     `json:"optionId,omitempty"`
	OptionIDs []string   `json:"optionIds,omitempty"`
	Items     []string   `json:"items,omitempty"`
	Number    *float64   `json:"value,omitempty"`
}

// MarshalJSON emits only the payload field matching the kind.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	out := answerValueJSON{Kind: v.Kind}
	switch v.Kind {
	case AnswerAbsent:
	case AnswerText:
		out.Text = v.Text
	case AnswerSingle:
		out.OptionID = v.OptionID
	case AnswerOptionSet:
		out.OptionIDs = v.OptionIDs
	case AnswerOrderedList:
		out.Items = v.Items
	case AnswerNumeric:
		n := v.Number
		out.Number = &n
	default:
		return nil, fmt.Errorf("marshal answer value: unknown kind %q", v.Kind)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the stored shape and rejects unknown kinds so a bad
// payload surfaces at the repository boundary instead of inside scoring.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw answerValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode answer value: %w", err)
	}
	switch raw.Kind {
	case AnswerAbsent:
		*v = AnswerValue{}
	case AnswerText:
		*v = TextAnswer(raw.Text)
	case AnswerSingle:
		*v = SingleOptionAnswer(raw.OptionID)
	case AnswerOptionSet:
		*v = AnswerValue{Kind: AnswerOptionSet, OptionIDs: raw.OptionIDs}
	case AnswerOrderedList:
		*v = AnswerValue{Kind: AnswerOrderedList, Items: raw.Items}
	case AnswerNumeric:
		if raw.Number == nil {
			return fmt.Errorf("decode answer value: numeric kind without value")
		}
		*v = NumericAnswer(*raw.Number)
	default:
		return fmt.Errorf("decode answer value: unknown kind %q", raw.Kind)
	}
	return nil
}
