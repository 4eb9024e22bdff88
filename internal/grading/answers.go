package grading

import (
	"bytes"
	"encoding/json"
	"math"
)

// Answer is one positional entry of a submission.
// Valid is false for entries that could not be read as an option index.
type Answer struct {
	Index int
	Valid bool
}

// Selected builds a valid answer pointing at option index.
func Selected(index int) Answer {
	return Answer{Index: index, Valid: true}
}

// Unanswered is an entry carrying no usable option index.
var Unanswered = Answer{}

// ParseAnswers converts raw JSON entries into positional answers.
// Only integral JSON numbers become option indices; anything else is kept as an invalid entry
// so positions stay aligned with the questions.
func ParseAnswers(raw []json.RawMessage) []Answer {
	answers := make([]Answer, 0, len(raw))
	for _, entry := range raw {
		answers = append(answers, parseAnswer(entry))
	}
	return answers
}

func parseAnswer(entry json.RawMessage) Answer {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Unanswered
	}
	switch trimmed[0] {
	case '"', '{', '[', 't', 'f':
		return Unanswered
	}

	var number float64
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return Unanswered
	}
	if number != math.Trunc(number) || number < math.MinInt32 || number > math.MaxInt32 {
		return Unanswered
	}

	return Selected(int(number))
}
