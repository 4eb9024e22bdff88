// Package grading scores submissions against activity definitions.
// Everything here is pure: no I/O and no mutation of the inputs.
package grading

import (
	"github.com/noah-isme/classroom-api/internal/models"
)

// Result is the outcome of grading one submission.
type Result struct {
	ObtainedMarks float64
	TotalMarks    float64
	PassMarks     float64
	Passed        bool
	// Answered counts entries that pointed at an existing option.
	Answered int
	// Correct counts questions that earned their marks.
	Correct int
	// Invalid lists the positions whose entries were missing, malformed or out of range.
	Invalid []int
	// LengthMismatch is set when the answer count differs from the question count,
	// in which case every question is graded as incorrect.
	LengthMismatch bool
}

// Grade scores answers, aligned by position, against activity.
func Grade(activity models.Activity, answers []Answer) Result {
	policy, ok := PolicyFor(activity.Kind)
	if !ok {
		policy = Policy{Kind: activity.Kind}
	}

	result := Result{
		TotalMarks: activity.TotalMarks,
		PassMarks:  policy.DisplayPassMarks(activity.TotalMarks, activity.PassMarks),
		Invalid:    []int{},
	}

	if len(answers) != len(activity.Questions) {
		result.LengthMismatch = true
	} else {
		for idx, question := range activity.Questions {
			answer := answers[idx]
			if !answer.Valid || answer.Index < 0 || answer.Index >= len(question.Options) {
				result.Invalid = append(result.Invalid, idx)
				continue
			}
			result.Answered++
			if question.Options[answer.Index].IsCorrect {
				result.ObtainedMarks += question.Marks
				result.Correct++
			}
		}
	}

	if result.ObtainedMarks > activity.TotalMarks {
		result.ObtainedMarks = activity.TotalMarks
	}
	if result.ObtainedMarks < 0 {
		result.ObtainedMarks = 0
	}

	result.Passed = policy.Passed(result.ObtainedMarks, activity.TotalMarks, activity.PassMarks)
	return result
}
