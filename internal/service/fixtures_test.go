package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

type recordedEvent struct {
	Topic string
	Data  any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Data: data})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.events))
	for _, event := range p.events {
		topics = append(topics, event.Topic)
	}
	return topics
}

type testEnv struct {
	db         *gorm.DB
	deps       ActivityDependencies
	publisher  *recordingPublisher
	subject    models.Subject
	student    models.User
	classmate  models.User
	teacher    models.User
	activities repository.ActivityRepository
	attempts   repository.AttemptRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDSNOptions(t, "")
}

// newTestEnvWithForeignKeys enforces sqlite foreign keys the way postgres does.
func newTestEnvWithForeignKeys(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDSNOptions(t, "&_foreign_keys=on")
}

func newTestEnvWithDSNOptions(t *testing.T, options string) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared%s", name, options)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Subject{}, &models.Activity{}, &models.ActivityAttempt{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	teacher := models.User{Name: "Mr. Okafor", Email: "okafor@example.com", Role: models.RoleTeacher}
	student := models.User{Name: "Lina", Email: "lina@example.com", Role: models.RoleStudent}
	classmate := models.User{Name: "Omar", Email: "omar@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&classmate).Error)

	subject := models.Subject{Name: "Science", TeacherID: &teacher.ID}
	require.NoError(t, db.Create(&subject).Error)

	publisher := &recordingPublisher{}
	activities := repository.NewActivityRepository(db)
	attempts := repository.NewAttemptRepository(db)

	return &testEnv{
		db: db,
		deps: ActivityDependencies{
			Activities: activities,
			Attempts:   attempts,
			Subjects:   repository.NewSubjectRepository(db),
			Users:      repository.NewUserRepository(db),
			Events:     publisher,
		},
		publisher:  publisher,
		subject:    subject,
		student:    student,
		classmate:  classmate,
		teacher:    teacher,
		activities: activities,
		attempts:   attempts,
	}
}

func (e *testEnv) service(kind models.ActivityKind) ActivityService {
	return NewActivityService(kind, e.deps, NewValidator(), zerolog.Nop())
}

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

// twoQuestionPayload builds the 5 + 10 marks fixture with one correct option per question.
func twoQuestionPayload(subjectID uint) dto.ActivityCreateRequest {
	return dto.ActivityCreateRequest{
		SubjectID:   subjectID,
		Title:       "Cells and organelles",
		Description: "Unit 3 check",
		Questions: []dto.QuestionRequest{
			{
				Text:  "Powerhouse of the cell",
				Marks: 5,
				Options: []dto.OptionRequest{
					{Text: "Nucleus", IsCorrect: boolPtr(false)},
					{Text: "Mitochondria", IsCorrect: boolPtr(true)},
				},
			},
			{
				Text:  "Site of photosynthesis",
				Marks: 10,
				Options: []dto.OptionRequest{
					{Text: "Chloroplast", IsCorrect: boolPtr(true)},
					{Text: "Ribosome", IsCorrect: boolPtr(false)},
				},
			},
		},
		DurationMinutes: 20,
		TotalMarks:      15,
		PassMarks:       floatPtr(10),
		Deadline:        stringPtr(time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)),
	}
}
