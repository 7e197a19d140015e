package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/repository"
)

// KnowledgeReader is the slice of the knowledge usecase the selection
// engine consumes: the freshest per-direction record for a word.
type KnowledgeReader interface {
	DirectionRecord(identity string, direction entity.Direction) (entity.WordKnowledge, bool)
}

// SelectionUsecase assembles practice rounds, favouring unseen, weak, and
// review-due words and steering clear of immediate repeats.
type SelectionUsecase interface {
	// Load reads the persisted recent-rounds history. A missing blob
	// yields an empty history.
	Load(ctx context.Context) error

	// SelectRoundWords returns an ordered sequence of exactly requested
	// words drawn from available. When available holds fewer distinct
	// words than requested, words repeat to fill the round. An empty
	// pool or a non-positive request yields an empty sequence.
	SelectRoundWords(ctx context.Context, available []entity.Word, requested int, category string, direction entity.Direction, prioritizeFrequency bool) []entity.Word

	// DueWords returns the practiced words whose rest period has elapsed
	// for the direction, longest overdue first. Unseen words never count
	// as due.
	DueWords(available []entity.Word, direction entity.Direction) []entity.Word

	// RecentHistory returns the retained rounds for the category,
	// oldest first.
	RecentHistory(category string) [][]string

	// ResetHistory clears the recent-rounds history.
	ResetHistory(ctx context.Context) error
}

// NewSelectionUsecase creates a selection engine reading knowledge signals
// from the given reader and persisting round history through the repository.
func NewSelectionUsecase(knowledge KnowledgeReader, repo repository.StateRepository, cfg LearningConfig, logger logrus.FieldLogger) SelectionUsecase {
	return &selectionUsecase{
		knowledge: knowledge,
		repo:      repo,
		cfg:       cfg.Sanitize(),
		log:       logger,
		clock:     time.Now,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		recent:    entity.NewRecentRounds(),
	}
}

type selectionUsecase struct {
	knowledge KnowledgeReader
	repo      repository.StateRepository
	cfg       LearningConfig
	log       logrus.FieldLogger
	clock     func() time.Time

	mu     sync.Mutex
	rand   *rand.Rand
	recent *entity.RecentRounds
}

func (u *selectionUsecase) Load(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	raw, err := u.repo.Load(ctx, repository.BlobRecentRounds)
	if err != nil {
		if errors.Is(err, entity.ErrBlobNotFound) {
			u.recent = entity.NewRecentRounds()
			return nil
		}
		u.log.WithError(err).Error("read recent rounds, starting empty")
		u.recent = entity.NewRecentRounds()
		return nil
	}
	if len(raw) == 0 {
		u.recent = entity.NewRecentRounds()
		return nil
	}
	recent := entity.NewRecentRounds()
	if err := json.Unmarshal(raw, recent); err != nil {
		u.log.WithError(err).Warn("discarding malformed recent rounds history")
		recent = entity.NewRecentRounds()
	}
	u.recent = recent
	return nil
}

func (u *selectionUsecase) SelectRoundWords(ctx context.Context, available []entity.Word, requested int, category string, direction entity.Direction, prioritizeFrequency bool) []entity.Word {
	if requested < 0 {
		requested = 0
	}
	if requested == 0 || len(available) == 0 {
		return []entity.Word{}
	}
	direction = entity.NormalizeDirection(direction)

	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.clock()
	drawn := u.drawWeighted(available, requested, direction, prioritizeFrequency, now)
	sequence := fillToCount(drawn, requested)
	sequence = repairSpacing(sequence, u.cfg.MinRepeatDistance)

	if previous := u.recent.Last(category); sameSequence(sequence, previous) && len(sequence) > 1 {
		sequence[0], sequence[1] = sequence[1], sequence[0]
	}

	u.recent.Append(category, identitiesOf(sequence), u.cfg.HistoryRounds)
	u.persistHistoryLocked(ctx)
	return sequence
}

func (u *selectionUsecase) DueWords(available []entity.Word, direction entity.Direction) []entity.Word {
	direction = entity.NormalizeDirection(direction)

	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.clock()
	type dueWord struct {
		word   entity.Word
		wakeAt time.Time
	}
	due := make([]dueWord, 0, len(available))
	for _, word := range available {
		record, ok := u.knowledge.DirectionRecord(word.Identity(), direction)
		if !ok {
			continue
		}
		wakeAt := record.LastPracticedAt.Add(u.cfg.reviewSpacing(record.Score))
		if wakeAt.After(now) {
			continue
		}
		due = append(due, dueWord{word: word, wakeAt: wakeAt})
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].wakeAt.Before(due[j].wakeAt) })

	words := make([]entity.Word, len(due))
	for i, d := range due {
		words[i] = d.word
	}
	return words
}

func (u *selectionUsecase) RecentHistory(category string) [][]string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.recent.Clone().Rounds(category)
}

func (u *selectionUsecase) ResetHistory(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.recent = entity.NewRecentRounds()
	raw, err := json.Marshal(u.recent)
	if err == nil {
		err = u.repo.Save(ctx, repository.BlobRecentRounds, raw)
	}
	if err != nil {
		return fmt.Errorf("persist recent rounds reset: %w", err)
	}
	return nil
}

// drawWeighted picks up to requested distinct words without replacement.
// Each word gets a weight from its knowledge partition, shaded by score and
// optionally by frequency rank, and the draw order comes from exponential
// sampling keys so higher weights surface earlier.
func (u *selectionUsecase) drawWeighted(available []entity.Word, requested int, direction entity.Direction, prioritizeFrequency bool, now time.Time) []entity.Word {
	type candidate struct {
		word entity.Word
		key  float64
	}
	candidates := make([]candidate, 0, len(available))
	for _, word := range available {
		weight := u.wordWeight(word, direction, prioritizeFrequency, now)
		candidates = append(candidates, candidate{
			word: word,
			key:  u.rand.ExpFloat64() / weight,
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].key < candidates[j].key })

	distinct := requested
	if distinct > len(candidates) {
		distinct = len(candidates)
	}
	drawn := make([]entity.Word, 0, distinct)
	for _, c := range candidates[:distinct] {
		drawn = append(drawn, c.word)
	}
	return drawn
}

// wordWeight implements the partition policy: unseen and weak words are
// markedly more likely than strong ones, due words sit in between, and
// within a partition the weight still falls as the score rises.
func (u *selectionUsecase) wordWeight(word entity.Word, direction entity.Direction, prioritizeFrequency bool, now time.Time) float64 {
	record, ok := u.knowledge.DirectionRecord(word.Identity(), direction)

	var base, score float64
	switch {
	case !ok:
		base = u.cfg.Partitions.Unseen
	case record.Score < u.cfg.WeakThreshold:
		base, score = u.cfg.Partitions.Weak, record.Score
	case now.Sub(record.LastPracticedAt) >= u.cfg.reviewSpacing(record.Score):
		base, score = u.cfg.Partitions.Due, record.Score
	default:
		base, score = u.cfg.Partitions.Strong, record.Score
	}

	weight := base * (200 - score) / 100
	if prioritizeFrequency && word.FrequencyRank > 0 {
		weight *= 1 + u.cfg.FrequencyBias/(1+math.Log1p(float64(word.FrequencyRank)))
	}
	if weight <= 0 {
		weight = 0.01
	}
	return weight
}

func (u *selectionUsecase) persistHistoryLocked(ctx context.Context) {
	raw, err := json.Marshal(u.recent)
	if err != nil {
		u.log.WithError(err).Error("encode recent rounds")
		return
	}
	if err := u.repo.Save(ctx, repository.BlobRecentRounds, raw); err != nil {
		u.log.WithError(err).Error("persist recent rounds")
	}
}

// fillToCount repeats the drawn words in draw order until the sequence
// reaches the requested length.
func fillToCount(drawn []entity.Word, requested int) []entity.Word {
	sequence := make([]entity.Word, 0, requested)
	for i := 0; len(sequence) < requested; i++ {
		sequence = append(sequence, drawn[i%len(drawn)])
	}
	return sequence
}

// repairSpacing walks the sequence and swaps forward any word that would
// land within minDistance of its previous occurrence, keeping the repair
// local so the weighted composition survives.
func repairSpacing(sequence []entity.Word, minDistance int) []entity.Word {
	if minDistance <= 1 || len(sequence) < 2 {
		return sequence
	}
	lastSeen := map[string]int{}
	for i := 0; i < len(sequence); i++ {
		identity := sequence[i].Identity()
		if previous, ok := lastSeen[identity]; ok && i-previous < minDistance {
			for p := i + 1; p < len(sequence); p++ {
				candidate := sequence[p].Identity()
				if candidate == identity {
					continue
				}
				if q, ok := lastSeen[candidate]; ok && i-q < minDistance {
					continue
				}
				sequence[i], sequence[p] = sequence[p], sequence[i]
				identity = candidate
				break
			}
			// No swap target means the pool is too small to honour the
			// distance; the repeat stays.
		}
		lastSeen[identity] = i
	}
	return sequence
}

func identitiesOf(words []entity.Word) []string {
	identities := make([]string, len(words))
	for i, word := range words {
		identities[i] = word.Identity()
	}
	return identities
}

func sameSequence(words []entity.Word, identities []string) bool {
	if len(identities) == 0 || len(words) != len(identities) {
		return false
	}
	for i, word := range words {
		if word.Identity() != identities[i] {
			return false
		}
	}
	return true
}
