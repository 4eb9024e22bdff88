package grading

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
)

func twoQuestionActivity(kind models.ActivityKind, passMarks float64) models.Activity {
	deadline := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return models.Activity{
		ID:         1,
		Kind:       kind,
		TotalMarks: 15,
		PassMarks:  passMarks,
		Deadline:   &deadline,
		Questions: []models.Question{
			{
				Text:  "2 + 2",
				Marks: 5,
				Options: []models.Option{
					{Text: "3"},
					{Text: "4", IsCorrect: true},
				},
			},
			{
				Text:  "Capital of France",
				Marks: 10,
				Options: []models.Option{
					{Text: "Paris", IsCorrect: true},
					{Text: "Lyon"},
					{Text: "Nice"},
				},
			},
		},
	}
}

func TestGradeAllCorrect(t *testing.T) {
	activity := twoQuestionActivity(models.ActivityKindAssignment, 15)

	result := Grade(activity, []Answer{Selected(1), Selected(0)})

	require.Equal(t, 15.0, result.ObtainedMarks)
	require.Equal(t, 15.0, result.TotalMarks)
	require.True(t, result.Passed)
	require.Equal(t, 2, result.Correct)
	require.Equal(t, 2, result.Answered)
	require.Empty(t, result.Invalid)
}

func TestGradeOutOfRangeIndexScoresZeroForQuestion(t *testing.T) {
	activity := twoQuestionActivity(models.ActivityKindExam, 12)

	result := Grade(activity, []Answer{Selected(99), Selected(0)})

	require.Equal(t, 10.0, result.ObtainedMarks)
	require.False(t, result.Passed)
	require.Equal(t, []int{0}, result.Invalid)
	require.Equal(t, 1, result.Answered)
}

func TestGradeNegativeAndUnansweredEntries(t *testing.T) {
	activity := twoQuestionActivity(models.ActivityKindExam, 0)

	result := Grade(activity, []Answer{Selected(-1), Unanswered})

	require.Zero(t, result.ObtainedMarks)
	require.Equal(t, []int{0, 1}, result.Invalid)
	require.True(t, result.Passed, "zero pass marks is always reached")
}

func TestGradePassBoundaryIsInclusive(t *testing.T) {
	activity := models.Activity{
		Kind:       models.ActivityKindAssignment,
		TotalMarks: 100,
		PassMarks:  50,
		Questions: []models.Question{
			{Text: "a", Marks: 50, Options: []models.Option{{Text: "yes", IsCorrect: true}, {Text: "no"}}},
			{Text: "b", Marks: 50, Options: []models.Option{{Text: "yes", IsCorrect: true}, {Text: "no"}}},
		},
	}

	result := Grade(activity, []Answer{Selected(0), Selected(1)})

	require.Equal(t, 50.0, result.ObtainedMarks)
	require.True(t, result.Passed)
}

func TestGradeLengthMismatchIsAllIncorrect(t *testing.T) {
	activity := twoQuestionActivity(models.ActivityKindExam, 5)

	short := Grade(activity, []Answer{Selected(1)})
	require.True(t, short.LengthMismatch)
	require.Zero(t, short.ObtainedMarks)
	require.False(t, short.Passed)

	long := Grade(activity, []Answer{Selected(1), Selected(0), Selected(0)})
	require.True(t, long.LengthMismatch)
	require.Zero(t, long.ObtainedMarks)
}

func TestGradeQuizUsesSeventyFivePercentThreshold(t *testing.T) {
	activity := twoQuestionActivity(models.ActivityKindQuiz, 1)

	onlySecond := Grade(activity, []Answer{Selected(0), Selected(0)})
	require.Equal(t, 10.0, onlySecond.ObtainedMarks)
	require.False(t, onlySecond.Passed, "10 of 15 is below 11.25 even though stored pass marks is 1")
	require.Equal(t, 11.25, onlySecond.PassMarks)

	all := Grade(activity, []Answer{Selected(1), Selected(0)})
	require.True(t, all.Passed)
}

func TestGradeMultipleCorrectOptions(t *testing.T) {
	activity := models.Activity{
		Kind:       models.ActivityKindExam,
		TotalMarks: 4,
		PassMarks:  4,
		Questions: []models.Question{
			{Text: "even", Marks: 4, Options: []models.Option{{Text: "2", IsCorrect: true}, {Text: "3"}, {Text: "4", IsCorrect: true}}},
		},
	}

	require.True(t, Grade(activity, []Answer{Selected(0)}).Passed)
	require.True(t, Grade(activity, []Answer{Selected(2)}).Passed)
	require.False(t, Grade(activity, []Answer{Selected(1)}).Passed)
}

func TestGradeIsPure(t *testing.T) {
	activity := twoQuestionActivity(models.ActivityKindAssignment, 10)
	answers := []Answer{Selected(1), Selected(2)}

	snapshot, err := json.Marshal(activity)
	require.NoError(t, err)

	first := Grade(activity, answers)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Grade(activity, answers))
	}

	after, err := json.Marshal(activity)
	require.NoError(t, err)
	require.JSONEq(t, string(snapshot), string(after))
	require.Equal(t, []Answer{Selected(1), Selected(2)}, answers)
}

func TestGradeScoreStaysWithinBounds(t *testing.T) {
	activity := twoQuestionActivity(models.ActivityKindExam, 5)
	activity.TotalMarks = 12

	cases := [][]Answer{
		nil,
		{Selected(1), Selected(0)},
		{Selected(0), Selected(1)},
		{Unanswered, Selected(0)},
		{Selected(7), Selected(-3)},
	}

	for _, answers := range cases {
		result := Grade(activity, answers)
		require.GreaterOrEqual(t, result.ObtainedMarks, 0.0)
		require.LessOrEqual(t, result.ObtainedMarks, activity.TotalMarks)
	}
}

func TestParseAnswers(t *testing.T) {
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`[1, 0.0, "2", null, 1.5, {"index": 1}, -2, 3e0]`), &raw))

	answers := ParseAnswers(raw)

	require.Equal(t, []Answer{
		Selected(1),
		Selected(0),
		Unanswered,
		Unanswered,
		Unanswered,
		Unanswered,
		Selected(-2),
		Selected(3),
	}, answers)
}

func TestPolicyFor(t *testing.T) {
	assignment, ok := PolicyFor(models.ActivityKindAssignment)
	require.True(t, ok)
	require.True(t, assignment.RequiresDeadline)
	require.True(t, assignment.RequiresPassMarks)

	exam, ok := PolicyFor(models.ActivityKindExam)
	require.True(t, ok)
	require.False(t, exam.AllowsDeadline)
	require.True(t, exam.RequiresPassMarks)

	quiz, ok := PolicyFor(models.ActivityKindQuiz)
	require.True(t, ok)
	require.False(t, quiz.RequiresPassMarks)
	require.Equal(t, 7.5, quiz.DisplayPassMarks(10, 99))
	require.Equal(t, 0.75, quiz.DisplayPassMarks(1, 0))

	_, ok = PolicyFor(models.ActivityKind("homework"))
	require.False(t, ok)
}
