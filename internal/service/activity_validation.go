package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
)

const marksTolerance = 1e-6

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDeadline(raw string) (time.Time, bool) {
	for _, layout := range deadlineLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// checkDeadline returns nil for kinds without deadlines, so exam payloads drop it.
func (s *activityService) checkDeadline(problems *ValidationError, raw *string, creating bool) *time.Time {
	if !s.policy.AllowsDeadline {
		return nil
	}

	if raw == nil || strings.TrimSpace(*raw) == "" {
		if s.policy.RequiresDeadline && (creating || raw != nil) {
			problems.Add("deadline", "is required")
		}
		return nil
	}

	deadline, ok := parseDeadline(strings.TrimSpace(*raw))
	if !ok {
		problems.Add("deadline", "must be a valid date (RFC3339 or YYYY-MM-DD)")
		return nil
	}
	return &deadline
}

func (s *activityService) checkPassMarks(problems *ValidationError, passMarks *float64, totalMarks float64, creating bool) {
	if !s.policy.RequiresPassMarks {
		return
	}
	if passMarks == nil {
		if creating {
			problems.Add("pass_marks", "is required")
		}
		return
	}
	if problems.Has("pass_marks") {
		return
	}
	if *passMarks < 0 {
		problems.Add("pass_marks", "must be greater than or equal to 0")
		return
	}
	if totalMarks > 0 && *passMarks > totalMarks {
		problems.Add("pass_marks", "must not exceed total_marks")
	}
}

func (s *activityService) checkMarksTotal(problems *ValidationError, questions []models.Question, totalMarks float64) {
	if totalMarks <= 0 || len(questions) == 0 {
		return
	}

	for _, question := range questions {
		if question.Marks <= 0 {
			return
		}
	}
	sum := models.Activity{Questions: questions}.QuestionMarksTotal()

	if math.Abs(sum-totalMarks) > marksTolerance {
		problems.Add("total_marks", fmt.Sprintf("must equal the sum of question marks (%g)", sum))
	}
}

func (s *activityService) checkSubject(ctx context.Context, problems *ValidationError, subjectID uint) error {
	if subjectID == 0 {
		return nil
	}

	exists, err := s.subjects.Exists(ctx, subjectID)
	if err != nil {
		return storageError(err)
	}
	if !exists {
		problems.Add("subject_id", "does not reference an existing subject")
	}
	return nil
}

func (s *activityService) sanitizeCreate(payload dto.ActivityCreateRequest) dto.ActivityCreateRequest {
	if !s.policy.RequiresPassMarks {
		payload.PassMarks = nil
	}
	payload.Title = s.cleanPlain(payload.Title)
	payload.Description = s.cleanRich(payload.Description)
	payload.Questions = s.sanitizeQuestions(payload.Questions)
	return payload
}

func (s *activityService) sanitizeUpdate(payload dto.ActivityUpdateRequest) dto.ActivityUpdateRequest {
	if !s.policy.RequiresPassMarks {
		payload.PassMarks = nil
	}
	if payload.Title != nil {
		title := s.cleanPlain(*payload.Title)
		payload.Title = &title
	}
	if payload.Description != nil {
		description := s.cleanRich(*payload.Description)
		payload.Description = &description
	}
	payload.Questions = s.sanitizeQuestions(payload.Questions)
	return payload
}

func (s *activityService) sanitizeQuestions(questions []dto.QuestionRequest) []dto.QuestionRequest {
	if questions == nil {
		return nil
	}

	cleaned := make([]dto.QuestionRequest, len(questions))
	for i, question := range questions {
		options := make([]dto.OptionRequest, len(question.Options))
		for j, option := range question.Options {
			options[j] = dto.OptionRequest{Text: s.cleanPlain(option.Text), IsCorrect: option.IsCorrect}
		}
		if question.Options == nil {
			options = nil
		}
		cleaned[i] = dto.QuestionRequest{Text: s.cleanPlain(question.Text), Options: options, Marks: question.Marks}
	}
	return cleaned
}

func (s *activityService) cleanPlain(value string) string {
	return strings.TrimSpace(s.plain.Sanitize(value))
}

func (s *activityService) cleanRich(value string) string {
	return strings.TrimSpace(s.rich.Sanitize(value))
}

func toQuestions(requests []dto.QuestionRequest) []models.Question {
	questions := make([]models.Question, 0, len(requests))
	for _, request := range requests {
		options := make([]models.Option, 0, len(request.Options))
		for _, option := range request.Options {
			correct := option.IsCorrect != nil && *option.IsCorrect
			options = append(options, models.Option{Text: option.Text, IsCorrect: correct})
		}
		questions = append(questions, models.Question{Text: request.Text, Options: options, Marks: request.Marks})
	}
	return questions
}
