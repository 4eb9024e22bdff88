package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/broker"
)

const testSecret = "handler-secret"

type testServer struct {
	app       *fiber.App
	db        *gorm.DB
	subject   models.Subject
	teacher   models.User
	student   models.User
	classmate models.User
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Meta    map[string]any  `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func setupServer(t *testing.T, submitLimit int) *testServer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Subject{}, &models.Activity{}, &models.ActivityAttempt{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	teacher := models.User{Name: "Ms. Adeyemi", Email: "adeyemi@example.com", Role: models.RoleTeacher}
	student := models.User{Name: "Tariq", Email: "tariq@example.com", Role: models.RoleStudent}
	classmate := models.User{Name: "Mei", Email: "mei@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&classmate).Error)

	subject := models.Subject{Name: "Geography", TeacherID: &teacher.ID}
	require.NoError(t, db.Create(&subject).Error)

	logger := zerolog.Nop()
	validate := service.NewValidator()

	activities := repository.NewActivityRepository(db)
	attempts := repository.NewAttemptRepository(db)
	subjects := repository.NewSubjectRepository(db)
	users := repository.NewUserRepository(db)

	reporting := service.NewReportingService(activities, attempts, users, nil, time.Minute, "test", logger)
	deps := service.ActivityDependencies{
		Activities: activities,
		Attempts:   attempts,
		Subjects:   subjects,
		Users:      users,
		Events:     broker.NewPublisher(nil, nil, "test"),
		Statistics: reporting,
	}

	guard := middleware.RateLimit("submit", submitLimit, time.Minute)
	activityHandler := func(kind models.ActivityKind) *handler.ActivityHandler {
		return handler.NewActivityHandler(service.NewActivityService(kind, deps, validate, logger), guard, logger)
	}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Classroom Test"}, router.Dependencies{
		AssignmentHandler:  activityHandler(models.ActivityKindAssignment),
		ExamHandler:        activityHandler(models.ActivityKindExam),
		QuizHandler:        activityHandler(models.ActivityKindQuiz),
		ReportingHandler:   handler.NewReportingHandler(reporting, logger),
		SubjectHandler:     handler.NewSubjectHandler(service.NewSubjectService(subjects, users, validate, logger), logger),
		UserHandler:        handler.NewUserHandler(service.NewUserService(users, validate, logger), logger),
		IdentityMiddleware: middleware.Identity(testSecret),
		DisableMetrics:     true,
	})

	return &testServer{app: app, db: db, subject: subject, teacher: teacher, student: student, classmate: classmate}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch payload := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(payload)
	default:
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode, decodeEnvelope(t, resp)
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var body envelope
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body
}

func decodeData(t *testing.T, body envelope, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Data, target))
}

// activityPayload is a 4 + 6 marks activity; option 0 is correct for the first
// question and option 2 for the second.
func activityPayload(subjectID uint) map[string]any {
	return map[string]any{
		"subject_id":       subjectID,
		"title":            "Rivers of the world",
		"description":      "Week 4 review",
		"duration_minutes": 15,
		"total_marks":      10,
		"pass_marks":       6,
		"deadline":         time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"questions": []map[string]any{
			{
				"text":  "Longest river",
				"marks": 4,
				"options": []map[string]any{
					{"text": "Nile", "is_correct": true},
					{"text": "Thames", "is_correct": false},
				},
			},
			{
				"text":  "River through Baghdad",
				"marks": 6,
				"options": []map[string]any{
					{"text": "Danube", "is_correct": false},
					{"text": "Volga", "is_correct": false},
					{"text": "Tigris", "is_correct": true},
				},
			},
		},
	}
}

func (s *testServer) createActivity(t *testing.T, collection string, payload map[string]any) uint {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/v1/"+collection, payload)
	require.Equal(t, fiber.StatusCreated, status, string(body.Details))

	var created struct {
		ID uint `json:"id"`
	}
	decodeData(t, body, &created)
	require.NotZero(t, created.ID)
	return created.ID
}

func problemFields(t *testing.T, body envelope) []string {
	t.Helper()
	var problems []service.FieldProblem
	require.NoError(t, json.Unmarshal(body.Details, &problems))

	fields := make([]string, 0, len(problems))
	for _, problem := range problems {
		fields = append(fields, problem.Field)
	}
	return fields
}
