package entity

import "time"

// LessonProgress tracks spaced-repetition state for one lesson: the scores
// from the latest completion and when the lesson next comes due. The review
// interval walks up a ladder (1, 3, 7, 14, 30 days by default) as
// performance improves and resets on poor performance.
type LessonProgress struct {
	LessonID         string             `json:"lessonId"`
	WordScores       map[string]float64 `json:"wordScores,omitempty"`
	IntervalIndex    int                `json:"intervalIndex"`
	NextReviewAt     time.Time          `json:"nextReviewAt"`
	CompletedCount   int                `json:"completedCount"`
	FirstCompletedAt time.Time          `json:"firstCompletedAt,omitempty"`
	LastCompletedAt  time.Time          `json:"lastCompletedAt,omitempty"`
}

// AverageScore returns the mean of the latest per-word scores, 0 when none
// were recorded.
func (lp *LessonProgress) AverageScore() float64 {
	if lp == nil || len(lp.WordScores) == 0 {
		return 0
	}
	var sum float64
	for _, score := range lp.WordScores {
		sum += score
	}
	return sum / float64(len(lp.WordScores))
}

// Due reports whether the lesson's next review time has passed.
func (lp *LessonProgress) Due(now time.Time) bool {
	if lp == nil || lp.NextReviewAt.IsZero() {
		return false
	}
	return !now.Before(lp.NextReviewAt)
}

// Clone returns an independent copy.
func (lp *LessonProgress) Clone() *LessonProgress {
	if lp == nil {
		return nil
	}
	clone := *lp
	if lp.WordScores != nil {
		clone.WordScores = make(map[string]float64, len(lp.WordScores))
		for identity, score := range lp.WordScores {
			clone.WordScores[identity] = score
		}
	}
	return &clone
}

// LessonProgressSet is the persisted collection of lesson progress records,
// keyed by lesson id.
type LessonProgressSet struct {
	Lessons map[string]*LessonProgress `json:"lessons"`
}

// NewLessonProgressSet returns an empty set.
func NewLessonProgressSet() *LessonProgressSet {
	return &LessonProgressSet{Lessons: map[string]*LessonProgress{}}
}

// Clone deep-copies the set.
func (ps *LessonProgressSet) Clone() *LessonProgressSet {
	if ps == nil {
		return nil
	}
	clone := &LessonProgressSet{Lessons: make(map[string]*LessonProgress, len(ps.Lessons))}
	for id, progress := range ps.Lessons {
		clone.Lessons[id] = progress.Clone()
	}
	return clone
}
