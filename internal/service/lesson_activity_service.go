package service

import (
	"context"
	"errors"
	"fmt"
	"habit_coach_backend/internal/model"
	"habit_coach_backend/internal/progress"
	"habit_coach_backend/internal/repository"
	"habit_coach_backend/internal/util"
	"habit_coach_backend/pkg/logger"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LessonActivityService 每节课的日记与运动打卡，决定下一节课能否解锁
type LessonActivityService struct {
	activityRepo   *repository.LessonActivityRepository
	lessonRepo     *repository.LessonRepository
	storage        *StorageService
	maxUploadBytes int64
	now            func() time.Time
}

func NewLessonActivityService(
	activityRepo *repository.LessonActivityRepository,
	lessonRepo *repository.LessonRepository,
	storage *StorageService,
	maxUploadMB int64,
) *LessonActivityService {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &LessonActivityService{
		activityRepo:   activityRepo,
		lessonRepo:     lessonRepo,
		storage:        storage,
		maxUploadBytes: maxUploadMB << 20,
		now:            time.Now,
	}
}

func (s *LessonActivityService) WithClock(now func() time.Time) *LessonActivityService {
	s.now = now
	return s
}

// MaxUploadBytes 附件大小上限
func (s *LessonActivityService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Get 未打卡时返回空记录
func (s *LessonActivityService) Get(ctx context.Context, userID uint, lessonID string) (*model.LessonActivity, error) {
	if userID == 0 {
		return &model.LessonActivity{LessonID: lessonID}, nil
	}
	if err := s.checkLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	a, err := s.activityRepo.FindByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.LessonActivity{UserID: userID, LessonID: lessonID}, nil
		}
		return nil, err
	}
	return a, nil
}

func (s *LessonActivityService) Status(ctx context.Context, userID uint, lessonID string) (progress.LessonStatus, error) {
	a, err := s.Get(ctx, userID, lessonID)
	if err != nil {
		return progress.LessonStatus{}, err
	}
	return a.Status(), nil
}

// SaveJournal 保存日记，内容为空视为未完成
func (s *LessonActivityService) SaveJournal(ctx context.Context, userID uint, lessonID, content string) (*model.LessonActivity, error) {
	if userID == 0 {
		return nil, util.ErrNotAuthenticated
	}
	if err := s.checkLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	a := &model.LessonActivity{UserID: userID, LessonID: lessonID, JournalContent: content}
	if content != "" {
		now := s.now()
		a.JournalCompletedAt = &now
	}

	if err := s.activityRepo.Upsert(ctx, a, "journal_content", "journal_completed_at"); err != nil {
		return nil, err
	}
	logger.WithUser(userID).Debug("journal saved", zap.String("lessonId", lessonID), zap.Bool("complete", content != ""))
	return s.activityRepo.FindByUserAndLesson(ctx, userID, lessonID)
}

// SetMovement 标记运动完成或撤销
func (s *LessonActivityService) SetMovement(ctx context.Context, userID uint, lessonID string, completed bool) (*model.LessonActivity, error) {
	if userID == 0 {
		return nil, util.ErrNotAuthenticated
	}
	if err := s.checkLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	a := &model.LessonActivity{UserID: userID, LessonID: lessonID}
	if completed {
		now := s.now()
		a.MovementCompletedAt = &now
	}

	if err := s.activityRepo.Upsert(ctx, a, "movement_completed_at"); err != nil {
		return nil, err
	}
	logger.WithUser(userID).Debug("movement updated", zap.String("lessonId", lessonID), zap.Bool("complete", completed))
	return s.activityRepo.FindByUserAndLesson(ctx, userID, lessonID)
}

// UploadJournalAttachment 上传日记图片，只接受 jpg/png/webp
func (s *LessonActivityService) UploadJournalAttachment(ctx context.Context, userID uint, lessonID, filename string, size int64, reader io.Reader) (*model.LessonActivity, error) {
	if userID == 0 {
		return nil, util.ErrNotAuthenticated
	}
	if size > s.maxUploadBytes {
		return nil, util.ErrFileTooLarge
	}
	if err := s.checkLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	contentType, body, err := util.SniffImage(reader, filename)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("journal/%d/%s/%s%s", userID, lessonID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.storage.Upload(ctx, key, body, size, contentType)
	if err != nil {
		return nil, err
	}

	a := &model.LessonActivity{UserID: userID, LessonID: lessonID, JournalAttachment: url}
	if err := s.activityRepo.Upsert(ctx, a, "journal_attachment"); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.Log.Warn("remove orphan attachment failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	logger.WithUser(userID).Info("journal attachment uploaded", zap.String("lessonId", lessonID), zap.String("url", url))
	return s.activityRepo.FindByUserAndLesson(ctx, userID, lessonID)
}

func (s *LessonActivityService) checkLesson(ctx context.Context, lessonID string) error {
	if _, err := s.lessonRepo.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}
	return nil
}
