package grading

import (
	"math"

	"github.com/noah-isme/classroom-api/internal/models"
)

// QuizPassRatio is the fixed share of total marks a quiz attempt must reach.
const QuizPassRatio = 0.75

// Policy captures what differs between activity kinds.
type Policy struct {
	Kind              models.ActivityKind
	RequiresDeadline  bool
	AllowsDeadline    bool
	RequiresPassMarks bool
	// PassRatio, when positive, derives the pass threshold from total marks
	// and any stored pass mark is ignored.
	PassRatio float64
}

var policies = map[models.ActivityKind]Policy{
	models.ActivityKindAssignment: {
		Kind:              models.ActivityKindAssignment,
		RequiresDeadline:  true,
		AllowsDeadline:    true,
		RequiresPassMarks: true,
	},
	models.ActivityKindExam: {
		Kind:              models.ActivityKindExam,
		RequiresPassMarks: true,
	},
	models.ActivityKindQuiz: {
		Kind:             models.ActivityKindQuiz,
		RequiresDeadline: true,
		AllowsDeadline:   true,
		PassRatio:        QuizPassRatio,
	},
}

// PolicyFor returns the policy of kind. The boolean is false for unknown kinds.
func PolicyFor(kind models.ActivityKind) (Policy, bool) {
	policy, ok := policies[kind]
	return policy, ok
}

// Threshold returns the marks needed to pass given the activity totals.
func (p Policy) Threshold(totalMarks, passMarks float64) float64 {
	if p.PassRatio > 0 {
		return p.PassRatio * totalMarks
	}
	return passMarks
}

// DisplayPassMarks is the threshold as stored and returned to clients, rounded to two decimals.
func (p Policy) DisplayPassMarks(totalMarks, passMarks float64) float64 {
	return math.Round(p.Threshold(totalMarks, passMarks)*100) / 100
}

// Passed applies the pass rule. The boundary is inclusive.
func (p Policy) Passed(obtained, totalMarks, passMarks float64) bool {
	return obtained+epsilon >= p.Threshold(totalMarks, passMarks)
}

const epsilon = 1e-9
