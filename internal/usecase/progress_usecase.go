package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/repository"
)

// ProgressUsecase tracks spaced-repetition lesson completions and schedules
// the next review for each lesson.
type ProgressUsecase interface {
	// Load reads the persisted lesson progress. A missing blob yields an
	// empty set.
	Load(ctx context.Context) error

	// RecordLessonCompletion stores the latest per-word scores for the
	// lesson and computes its next review time. A strong completion
	// climbs the interval ladder, a weak one drops back to the bottom.
	RecordLessonCompletion(ctx context.Context, lessonID string, wordScores map[string]float64) (*entity.LessonProgress, error)

	// LessonState returns the progress record for one lesson.
	LessonState(lessonID string) (*entity.LessonProgress, bool)

	// DueLessons lists lessons whose next review time has passed, most
	// overdue first.
	DueLessons() []*entity.LessonProgress

	// Reset clears all lesson progress.
	Reset(ctx context.Context) error
}

// NewProgressUsecase creates a progress tracker persisting through the
// given state repository.
func NewProgressUsecase(repo repository.StateRepository, cfg LearningConfig, logger logrus.FieldLogger) ProgressUsecase {
	return &progressUsecase{
		repo:  repo,
		cfg:   cfg.Sanitize(),
		log:   logger,
		clock: time.Now,
		set:   entity.NewLessonProgressSet(),
	}
}

type progressUsecase struct {
	repo  repository.StateRepository
	cfg   LearningConfig
	log   logrus.FieldLogger
	clock func() time.Time

	mu  sync.Mutex
	set *entity.LessonProgressSet
}

func (u *progressUsecase) Load(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	raw, err := u.repo.Load(ctx, repository.BlobLessonProgress)
	if err != nil {
		if !errors.Is(err, entity.ErrBlobNotFound) {
			u.log.WithError(err).Error("read lesson progress, starting empty")
		}
		u.set = entity.NewLessonProgressSet()
		return nil
	}
	if len(raw) == 0 {
		u.set = entity.NewLessonProgressSet()
		return nil
	}
	set := entity.NewLessonProgressSet()
	if err := json.Unmarshal(raw, set); err != nil {
		u.log.WithError(err).Warn("discarding malformed lesson progress")
		set = entity.NewLessonProgressSet()
	}
	if set.Lessons == nil {
		set.Lessons = map[string]*entity.LessonProgress{}
	}
	u.set = set
	return nil
}

func (u *progressUsecase) RecordLessonCompletion(ctx context.Context, lessonID string, wordScores map[string]float64) (*entity.LessonProgress, error) {
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return nil, entity.ErrUnknownCategory
	}

	u.mu.Lock()
	now := u.clock()
	progress, ok := u.set.Lessons[lessonID]
	if !ok {
		progress = &entity.LessonProgress{
			LessonID:         lessonID,
			FirstCompletedAt: now,
		}
		u.set.Lessons[lessonID] = progress
	}

	progress.WordScores = make(map[string]float64, len(wordScores))
	for identity, score := range wordScores {
		progress.WordScores[identity] = clampScore(score)
	}

	average := progress.AverageScore()
	if ok {
		switch {
		case average >= u.cfg.KnownThreshold:
			if progress.IntervalIndex < u.cfg.maxLadderIndex() {
				progress.IntervalIndex++
			}
		case average < u.cfg.WeakThreshold:
			progress.IntervalIndex = 0
		}
	} else {
		progress.IntervalIndex = 0
	}
	progress.NextReviewAt = now.Add(u.cfg.ladderInterval(progress.IntervalIndex))
	progress.CompletedCount++
	progress.LastCompletedAt = now

	u.persistLocked(ctx)
	result := progress.Clone()
	u.mu.Unlock()

	return result, nil
}

func (u *progressUsecase) LessonState(lessonID string) (*entity.LessonProgress, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	progress, ok := u.set.Lessons[strings.TrimSpace(lessonID)]
	if !ok {
		return nil, false
	}
	return progress.Clone(), true
}

func (u *progressUsecase) DueLessons() []*entity.LessonProgress {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.clock()
	due := make([]*entity.LessonProgress, 0, len(u.set.Lessons))
	for _, progress := range u.set.Lessons {
		if progress.Due(now) {
			due = append(due, progress.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].LessonID < due[j].LessonID
		}
		return due[i].NextReviewAt.Before(due[j].NextReviewAt)
	})
	return due
}

func (u *progressUsecase) Reset(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.set = entity.NewLessonProgressSet()
	raw, err := json.Marshal(u.set)
	if err == nil {
		err = u.repo.Save(ctx, repository.BlobLessonProgress, raw)
	}
	if err != nil {
		return fmt.Errorf("persist lesson progress reset: %w", err)
	}
	return nil
}

func (u *progressUsecase) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(u.set)
	if err != nil {
		u.log.WithError(err).Error("encode lesson progress")
		return
	}
	if err := u.repo.Save(ctx, repository.BlobLessonProgress, raw); err != nil {
		u.log.WithError(err).Error("persist lesson progress")
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
