package usecase

import (
	"sort"
	"time"

	"github.com/hvirta/sanatreeni/internal/entity"
)

// PartitionWeights sets the relative draw weight of each knowledge bucket
// during round selection.
type PartitionWeights struct {
	Unseen float64
	Weak   float64
	Due    float64
	Strong float64
}

// LearningConfig tunes scoring, thresholds, and selection behaviour. The
// constants are deliberate tunables; only the monotonicity properties are
// fixed. Start from DefaultLearningConfig and override selectively.
type LearningConfig struct {
	KnownThreshold    float64
	MasteredThreshold float64
	WeakThreshold     float64
	ScoreSmoothing    float64 // EMA factor applied per answer, in (0, 1]
	OutcomeValues     map[entity.AnswerOutcome]float64
	Partitions        PartitionWeights
	FrequencyBias     float64
	MinRepeatDistance int
	HistoryRounds     int
	ReviewLadderDays  []int
}

// DefaultLearningConfig returns the stock tuning.
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		KnownThreshold:    60,
		MasteredThreshold: 80,
		WeakThreshold:     40,
		ScoreSmoothing:    0.35,
		OutcomeValues: map[entity.AnswerOutcome]float64{
			entity.OutcomeFirstTry:  100,
			entity.OutcomeSecondTry: 30,
			entity.OutcomeThirdTry:  10,
			entity.OutcomeFailed:    0,
		},
		Partitions: PartitionWeights{
			Unseen: 8,
			Weak:   6,
			Due:    5,
			Strong: 1,
		},
		FrequencyBias:     0.6,
		MinRepeatDistance: 5,
		HistoryRounds:     3,
		ReviewLadderDays:  []int{1, 3, 7, 14, 30},
	}
}

// Sanitize replaces unusable values with the defaults so a partially
// populated config cannot break the score or selection invariants.
func (c LearningConfig) Sanitize() LearningConfig {
	defaults := DefaultLearningConfig()
	if c.KnownThreshold <= 0 || c.KnownThreshold > 100 {
		c.KnownThreshold = defaults.KnownThreshold
	}
	if c.MasteredThreshold <= 0 || c.MasteredThreshold > 100 {
		c.MasteredThreshold = defaults.MasteredThreshold
	}
	if c.WeakThreshold <= 0 || c.WeakThreshold > 100 {
		c.WeakThreshold = defaults.WeakThreshold
	}
	if c.ScoreSmoothing <= 0 || c.ScoreSmoothing > 1 {
		c.ScoreSmoothing = defaults.ScoreSmoothing
	}
	if len(c.OutcomeValues) == 0 {
		c.OutcomeValues = defaults.OutcomeValues
	}
	if c.Partitions.Unseen <= 0 {
		c.Partitions.Unseen = defaults.Partitions.Unseen
	}
	if c.Partitions.Weak <= 0 {
		c.Partitions.Weak = defaults.Partitions.Weak
	}
	if c.Partitions.Due <= 0 {
		c.Partitions.Due = defaults.Partitions.Due
	}
	if c.Partitions.Strong <= 0 {
		c.Partitions.Strong = defaults.Partitions.Strong
	}
	if c.FrequencyBias < 0 {
		c.FrequencyBias = defaults.FrequencyBias
	}
	if c.MinRepeatDistance <= 0 {
		c.MinRepeatDistance = defaults.MinRepeatDistance
	}
	if c.HistoryRounds <= 0 {
		c.HistoryRounds = defaults.HistoryRounds
	}
	if len(c.ReviewLadderDays) == 0 {
		c.ReviewLadderDays = defaults.ReviewLadderDays
	}
	ladder := make([]int, len(c.ReviewLadderDays))
	copy(ladder, c.ReviewLadderDays)
	sort.Ints(ladder)
	c.ReviewLadderDays = ladder
	return c
}

func (c LearningConfig) outcomeValue(outcome entity.AnswerOutcome) float64 {
	if value, ok := c.OutcomeValues[outcome]; ok {
		return value
	}
	return 0
}

// reviewSpacing maps a record's score to how long it may rest before the
// word counts as due for review. Higher scores earn longer spacing by
// walking up the review ladder.
func (c LearningConfig) reviewSpacing(score float64) time.Duration {
	ladder := c.ReviewLadderDays
	if len(ladder) == 0 {
		ladder = DefaultLearningConfig().ReviewLadderDays
	}
	upper := (c.MasteredThreshold + 100) / 2
	var idx int
	switch {
	case score < c.WeakThreshold:
		idx = 0
	case score < c.KnownThreshold:
		idx = 1
	case score < c.MasteredThreshold:
		idx = 2
	case score < upper:
		idx = 3
	default:
		idx = len(ladder) - 1
	}
	if idx > len(ladder)-1 {
		idx = len(ladder) - 1
	}
	return time.Duration(ladder[idx]) * 24 * time.Hour
}

// ladderInterval returns the review interval for a lesson at the given
// ladder position, clamping past both ends.
func (c LearningConfig) ladderInterval(index int) time.Duration {
	ladder := c.ReviewLadderDays
	if len(ladder) == 0 {
		ladder = DefaultLearningConfig().ReviewLadderDays
	}
	if index < 0 {
		index = 0
	}
	if index > len(ladder)-1 {
		index = len(ladder) - 1
	}
	return time.Duration(ladder[index]) * 24 * time.Hour
}

// maxLadderIndex is the highest reachable lesson interval position.
func (c LearningConfig) maxLadderIndex() int {
	if len(c.ReviewLadderDays) == 0 {
		return len(DefaultLearningConfig().ReviewLadderDays) - 1
	}
	return len(c.ReviewLadderDays) - 1
}
