package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/middleware"
	"habit_coach_backend/internal/repository"
	"habit_coach_backend/internal/service"
	"habit_coach_backend/internal/util"
	"habit_coach_backend/pkg/database"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "controller-test-secret-0123456789abcdef"

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	clock  *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	program := config.ProgramConfig{
		Phase:              1,
		MaxPhaseDay:        30,
		ChapterSize:        5,
		ChapterBoundaries:  []int{6, 11, 16, 21, 26},
		RetryCooldownHours: 24,
		Timezone:           "UTC",
	}
	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: testSecret},
		Program: program,
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir(), MaxUploadMB: 1},
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db, program))

	gates, err := service.NewGateProvider(program)
	require.NoError(t, err)

	now := testNow
	clock := func() time.Time { return now }
	s := &testServer{db: db, clock: &now}

	progressRepo := repository.NewProgressRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	activityRepo := repository.NewLessonActivityRepository(db)
	locker := service.NewLocalLocker()

	progressSvc := service.NewProgressService(progressRepo, lessonRepo, activityRepo, gates, locker).WithClock(clock)
	quizSvc := service.NewQuizService(repository.NewQuizAttemptRepository(db), progressRepo, gates, locker).WithClock(clock)
	activitySvc := service.NewLessonActivityService(activityRepo, lessonRepo, service.NewStorageService(&cfg.Storage), cfg.Storage.MaxUploadMB).WithClock(clock)

	progressCtl := NewProgressController(progressSvc)
	lessonCtl := NewLessonController(progressSvc, activitySvc)
	quizCtl := NewQuizController(quizSvc)

	current := func() *config.Config { return cfg }
	r := gin.New()
	r.GET("/api/health", NewHealthController(db, nil).HealthCheck)

	open := r.Group("/api", middleware.TryAuthMiddleware(current))
	open.GET("/lessons", lessonCtl.ListLessons)
	open.GET("/lessons/day/:day/access", lessonCtl.CheckAccess)

	auth := r.Group("/api", middleware.AuthMiddleware(current))
	auth.POST("/progress/start", progressCtl.StartProgram)
	auth.GET("/progress", progressCtl.GetOverview)
	auth.POST("/lessons/:id/complete", lessonCtl.CompleteLesson)
	auth.GET("/lessons/:id/status", lessonCtl.GetStatus)
	auth.PUT("/lessons/:id/journal", lessonCtl.SaveJournal)
	auth.POST("/lessons/:id/journal/attachment", lessonCtl.UploadJournalAttachment)
	auth.PUT("/lessons/:id/movement", lessonCtl.SetMovement)
	auth.POST("/quizzes/:chapterId/attempts", quizCtl.RecordAttempt)
	auth.GET("/quizzes/:chapterId/attempts", quizCtl.ListAttempts)
	auth.GET("/quizzes/:chapterId/retry", quizCtl.CanRetry)

	s.router = r
	return s
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	token, err := util.GenerateJWT(userID, "", testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

type jsonBody = map[string]interface{}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do 发送请求，userID 为 0 时不带令牌
func (s *testServer) do(t *testing.T, method, path string, userID uint, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", bearer(t, userID))
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

// startProgram 把服务器时钟拨到 start 当天再开始课程，之后恢复
func (s *testServer) startProgram(t *testing.T, userID uint, start string) {
	t.Helper()
	day, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)

	saved := *s.clock
	*s.clock = day.Add(9 * time.Hour)
	defer func() { *s.clock = saved }()

	w, _ := s.do(t, http.MethodPost, "/api/progress/start", userID, jsonBody{"startDate": start})
	require.Equal(t, http.StatusOK, w.Code)
}
