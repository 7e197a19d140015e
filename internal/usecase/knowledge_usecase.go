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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/repository"
)

// WordResolver resolves surface forms and identities against the current
// vocabulary. The vocabulary provider satisfies it.
type WordResolver interface {
	BySurface(form string) []entity.Word
	ByIdentity(identity string) (entity.Word, bool)
}

// KnowledgeUsecase owns the persistent record of what the player knows.
// All reads return copies; the in-memory store is the source of truth and
// every mutation is written back to storage on a best-effort basis.
type KnowledgeUsecase interface {
	// Load reads the persisted store, migrating legacy payloads to the
	// current schema. A missing or empty blob yields a fresh store.
	Load(ctx context.Context) (entity.MigrationReport, error)

	// RecordAnswer applies one answer to the per-word record for the
	// given direction and mode.
	RecordAnswer(ctx context.Context, identity, target string, direction entity.Direction, outcome entity.AnswerOutcome, mode entity.GameMode) error

	// RecordRoundCompletion appends a completed round to the round log
	// and bumps the aggregate counters.
	RecordRoundCompletion(ctx context.Context, category string, direction entity.Direction, mode entity.GameMode, outcomes []entity.WordOutcome) (entity.RoundSummary, error)

	// WordRecord returns the record for one (identity, direction, mode)
	// combination.
	WordRecord(identity string, direction entity.Direction, mode entity.GameMode) (entity.WordKnowledge, bool)

	// DirectionRecord returns the most recently practiced record for the
	// identity in the given direction, across modes.
	DirectionRecord(identity string, direction entity.Direction) (entity.WordKnowledge, bool)

	// CategoryKnowledge aggregates per-direction knowledge over the given
	// word list.
	CategoryKnowledge(categoryID string, words []entity.Word) entity.CategoryKnowledge

	// Statistics summarises the whole store.
	Statistics() entity.Statistics

	// ExportData renders the store as a self-contained JSON document.
	ExportData() ([]byte, error)

	// ImportData validates an exported document and merges it into the
	// store, keeping the newer record wherever both sides practiced the
	// same word. A bad payload leaves the store untouched.
	ImportData(ctx context.Context, payload []byte) (entity.ImportReport, error)

	// Reset replaces the store with an empty, current-version one.
	Reset(ctx context.Context) error

	// Subscribe registers a callback invoked with a fresh snapshot after
	// every change. It returns the current snapshot and an unsubscribe
	// function.
	Subscribe(fn func(*entity.KnowledgeStore)) (*entity.KnowledgeStore, func())
}

// NewKnowledgeUsecase creates a knowledge usecase backed by the given
// state repository and vocabulary resolver.
func NewKnowledgeUsecase(repo repository.StateRepository, resolver WordResolver, cfg LearningConfig, logger logrus.FieldLogger) KnowledgeUsecase {
	return &knowledgeUsecase{
		repo:     repo,
		resolver: resolver,
		cfg:      cfg.Sanitize(),
		log:      logger,
		clock:    time.Now,
		subs:     map[int]func(*entity.KnowledgeStore){},
	}
}

type knowledgeUsecase struct {
	repo     repository.StateRepository
	resolver WordResolver
	cfg      LearningConfig
	log      logrus.FieldLogger
	clock    func() time.Time

	mu      sync.RWMutex
	store   *entity.KnowledgeStore
	loaded  bool
	subs    map[int]func(*entity.KnowledgeStore)
	nextSub int
}

func (u *knowledgeUsecase) Load(ctx context.Context) (entity.MigrationReport, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	report := entity.MigrationReport{FromVersion: entity.CurrentSchemaVersion, ToVersion: entity.CurrentSchemaVersion}

	raw, err := u.repo.Load(ctx, repository.BlobKnowledge)
	if err != nil {
		if !errors.Is(err, entity.ErrBlobNotFound) {
			// Storage trouble must not block practice. Start fresh in
			// memory; the next successful save re-establishes the blob.
			u.log.WithError(err).Error("read knowledge store, starting empty")
		}
		u.store = entity.NewKnowledgeStore(u.clock())
		u.loaded = true
		return report, nil
	}
	if len(raw) == 0 {
		u.store = entity.NewKnowledgeStore(u.clock())
		u.loaded = true
		return report, nil
	}

	store, report, err := migrateKnowledge(raw, u.resolver, u.log, u.clock)
	if err != nil {
		// Migration failures are loud: the persisted payload stays as it
		// was and the store remains unavailable.
		return report, err
	}
	u.store = store
	u.loaded = true
	if report.FromVersion != report.ToVersion {
		u.persistLocked(ctx)
	}
	return report, nil
}

func (u *knowledgeUsecase) RecordAnswer(ctx context.Context, identity, target string, direction entity.Direction, outcome entity.AnswerOutcome, mode entity.GameMode) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return entity.ErrInvalidIdentity
	}
	if !outcome.Valid() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidOutcome, outcome)
	}

	u.mu.Lock()
	if !u.loaded {
		u.mu.Unlock()
		return entity.ErrStoreNotLoaded
	}
	now := u.clock()
	record := u.store.Ensure(identity, direction, mode)
	switch outcome {
	case entity.OutcomeFirstTry:
		record.FirstTry++
	case entity.OutcomeSecondTry:
		record.SecondTry++
	case entity.OutcomeThirdTry:
		record.ThirdTry++
	case entity.OutcomeFailed:
		record.Failed++
	}
	record.Score += u.cfg.ScoreSmoothing * (u.cfg.outcomeValue(outcome) - record.Score)
	if target != "" {
		record.Target = target
	}
	if record.FirstPracticedAt.IsZero() {
		record.FirstPracticedAt = now
	}
	record.LastPracticedAt = now
	record.Normalize()
	u.store.Meta.UpdatedAt = now

	u.persistLocked(ctx)
	snapshot, fns := u.subscribersLocked()
	u.mu.Unlock()

	notify(snapshot, fns)
	return nil
}

func (u *knowledgeUsecase) RecordRoundCompletion(ctx context.Context, category string, direction entity.Direction, mode entity.GameMode, outcomes []entity.WordOutcome) (entity.RoundSummary, error) {
	u.mu.Lock()
	if !u.loaded {
		u.mu.Unlock()
		return entity.RoundSummary{}, entity.ErrStoreNotLoaded
	}
	now := u.clock()
	round := entity.RoundSummary{
		ID:          uuid.NewString(),
		Category:    strings.TrimSpace(category),
		Direction:   entity.NormalizeDirection(direction),
		Mode:        entity.NormalizeMode(mode),
		Outcomes:    append([]entity.WordOutcome(nil), outcomes...),
		CompletedAt: now,
	}
	u.store.Rounds = append(u.store.Rounds, round)
	u.store.Meta.TotalRounds++
	if u.store.Meta.RoundsByMode == nil {
		u.store.Meta.RoundsByMode = map[entity.GameMode]int{}
	}
	u.store.Meta.RoundsByMode[round.Mode]++
	u.store.Meta.UpdatedAt = now

	u.persistLocked(ctx)
	snapshot, fns := u.subscribersLocked()
	u.mu.Unlock()

	notify(snapshot, fns)
	return round.Clone(), nil
}

func (u *knowledgeUsecase) WordRecord(identity string, direction entity.Direction, mode entity.GameMode) (entity.WordKnowledge, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if !u.loaded {
		return entity.WordKnowledge{}, false
	}
	record := u.store.Lookup(identity, direction, mode)
	if record == nil {
		return entity.WordKnowledge{}, false
	}
	return *record.Clone(), true
}

func (u *knowledgeUsecase) DirectionRecord(identity string, direction entity.Direction) (entity.WordKnowledge, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if !u.loaded {
		return entity.WordKnowledge{}, false
	}
	record := u.store.LatestRecord(identity, direction)
	if record == nil {
		return entity.WordKnowledge{}, false
	}
	return *record.Clone(), true
}

func (u *knowledgeUsecase) CategoryKnowledge(categoryID string, words []entity.Word) entity.CategoryKnowledge {
	u.mu.RLock()
	defer u.mu.RUnlock()

	result := entity.CategoryKnowledge{
		CategoryID:   categoryID,
		TotalWords:   len(words),
		PerDirection: map[entity.Direction]entity.DirectionKnowledge{},
	}
	if !u.loaded {
		return result
	}
	for _, direction := range entity.Directions() {
		var agg entity.DirectionKnowledge
		var sum float64
		for _, word := range words {
			record := u.store.LatestRecord(word.Identity(), direction)
			if record == nil {
				continue
			}
			agg.Practiced++
			sum += record.Score
			if record.Score >= u.cfg.KnownThreshold {
				agg.Known++
			}
		}
		if agg.Practiced > 0 {
			agg.AverageScore = sum / float64(agg.Practiced)
		}
		result.PerDirection[direction] = agg
	}
	return result
}

func (u *knowledgeUsecase) Statistics() entity.Statistics {
	u.mu.RLock()
	defer u.mu.RUnlock()

	var stats entity.Statistics
	if !u.loaded {
		return stats
	}
	stats.TotalRounds = u.store.Meta.TotalRounds
	stats.RoundsByMode = map[entity.GameMode]int{}
	for mode, count := range u.store.Meta.RoundsByMode {
		stats.RoundsByMode[mode] = count
	}
	for _, records := range u.store.Words {
		record := latestOf(records)
		if record == nil {
			continue
		}
		stats.WordsPracticed++
		if record.Score >= u.cfg.MasteredThreshold {
			stats.WordsMastered++
		}
		if record.Score < u.cfg.WeakThreshold {
			stats.WordsWeak++
		}
	}
	return stats
}

func (u *knowledgeUsecase) ExportData() ([]byte, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if !u.loaded {
		return nil, entity.ErrStoreNotLoaded
	}
	payload := entity.ExportPayload{
		Version:    u.store.Version,
		ExportedAt: u.clock(),
		Knowledge:  u.store.Clone(),
	}
	return json.MarshalIndent(payload, "", "  ")
}

func (u *knowledgeUsecase) ImportData(ctx context.Context, payload []byte) (entity.ImportReport, error) {
	var report entity.ImportReport

	var probe struct {
		Version   *int            `json:"version"`
		Knowledge json.RawMessage `json:"knowledge"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return report, fmt.Errorf("%w: %v", entity.ErrInvalidPayload, err)
	}
	if probe.Version == nil {
		return report, fmt.Errorf("%w: missing version field", entity.ErrInvalidPayload)
	}
	if *probe.Version > entity.CurrentSchemaVersion {
		return report, fmt.Errorf("%w: version %d", entity.ErrPayloadTooNew, *probe.Version)
	}
	if len(probe.Knowledge) == 0 || string(probe.Knowledge) == "null" {
		return report, fmt.Errorf("%w: missing knowledge data", entity.ErrInvalidPayload)
	}

	incoming, _, err := migrateVersioned(probe.Knowledge, *probe.Version, u.resolver, u.log, u.clock)
	if err != nil {
		return report, err
	}

	u.mu.Lock()
	if !u.loaded {
		u.mu.Unlock()
		return report, entity.ErrStoreNotLoaded
	}
	now := u.clock()
	for _, identity := range sortedKeys(incoming.Words) {
		for key, record := range incoming.Words[identity] {
			record.Normalize()
			existing := u.store.Words[identity][key]
			switch {
			case existing == nil:
				if u.store.Words[identity] == nil {
					u.store.Words[identity] = map[string]*entity.WordKnowledge{}
				}
				u.store.Words[identity][key] = record.Clone()
				report.Added++
			case record.LastPracticedAt.After(existing.LastPracticedAt):
				u.store.Words[identity][key] = record.Clone()
				report.Merged++
			default:
				report.Kept++
			}
		}
	}
	u.mergeRoundsLocked(incoming)
	u.store.Meta.UpdatedAt = now

	u.persistLocked(ctx)
	snapshot, fns := u.subscribersLocked()
	u.mu.Unlock()

	notify(snapshot, fns)
	return report, nil
}

// mergeRoundsLocked unions the incoming round log into the local one by
// round ID and rebuilds the aggregate counters from the merged log when
// the incoming log adds rounds the local log has not seen.
func (u *knowledgeUsecase) mergeRoundsLocked(incoming *entity.KnowledgeStore) {
	if len(incoming.Rounds) == 0 {
		return
	}
	seen := map[string]bool{}
	for _, round := range u.store.Rounds {
		seen[round.ID] = true
	}
	added := 0
	for _, round := range incoming.Rounds {
		if round.ID == "" || seen[round.ID] {
			continue
		}
		seen[round.ID] = true
		u.store.Rounds = append(u.store.Rounds, round.Clone())
		added++
	}
	if added == 0 {
		return
	}
	sort.SliceStable(u.store.Rounds, func(i, j int) bool {
		return u.store.Rounds[i].CompletedAt.Before(u.store.Rounds[j].CompletedAt)
	})
	u.store.Meta.TotalRounds = len(u.store.Rounds)
	byMode := map[entity.GameMode]int{}
	for _, round := range u.store.Rounds {
		byMode[round.Mode]++
	}
	u.store.Meta.RoundsByMode = byMode
}

func (u *knowledgeUsecase) Reset(ctx context.Context) error {
	u.mu.Lock()
	u.store = entity.NewKnowledgeStore(u.clock())
	u.loaded = true
	raw, err := json.Marshal(u.store)
	if err == nil {
		err = u.repo.Save(ctx, repository.BlobKnowledge, raw)
	}
	snapshot, fns := u.subscribersLocked()
	u.mu.Unlock()

	notify(snapshot, fns)
	if err != nil {
		return fmt.Errorf("persist reset knowledge store: %w", err)
	}
	return nil
}

func (u *knowledgeUsecase) Subscribe(fn func(*entity.KnowledgeStore)) (*entity.KnowledgeStore, func()) {
	u.mu.Lock()
	id := u.nextSub
	u.nextSub++
	u.subs[id] = fn
	snapshot := u.store.Clone()
	u.mu.Unlock()

	return snapshot, func() {
		u.mu.Lock()
		delete(u.subs, id)
		u.mu.Unlock()
	}
}

// persistLocked writes the store back to the repository. Failures are
// logged and otherwise ignored; the in-memory store stays authoritative.
func (u *knowledgeUsecase) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(u.store)
	if err != nil {
		u.log.WithError(err).Error("encode knowledge store")
		return
	}
	if err := u.repo.Save(ctx, repository.BlobKnowledge, raw); err != nil {
		u.log.WithError(err).Error("persist knowledge store")
	}
}

func (u *knowledgeUsecase) subscribersLocked() (*entity.KnowledgeStore, []func(*entity.KnowledgeStore)) {
	if len(u.subs) == 0 {
		return nil, nil
	}
	snapshot := u.store.Clone()
	fns := make([]func(*entity.KnowledgeStore), 0, len(u.subs))
	for _, fn := range u.subs {
		fns = append(fns, fn)
	}
	return snapshot, fns
}

// notify runs subscriber callbacks outside the store lock so they may call
// back into the usecase.
func notify(snapshot *entity.KnowledgeStore, fns []func(*entity.KnowledgeStore)) {
	for _, fn := range fns {
		fn(snapshot)
	}
}

// latestOf picks the most recently practiced record of a record set.
func latestOf(records map[string]*entity.WordKnowledge) *entity.WordKnowledge {
	var latest *entity.WordKnowledge
	for _, key := range sortedKeys(records) {
		record := records[key]
		if latest == nil || record.LastPracticedAt.After(latest.LastPracticedAt) {
			latest = record
		}
	}
	return latest
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
