package entity

import (
	"strings"
	"time"
)

// CurrentSchemaVersion is the persisted knowledge schema the code expects.
// Payloads carrying an older version are upgraded by the migration routine
// before any store operation runs.
const CurrentSchemaVersion = 2

// WordKnowledge accumulates performance for one (word identity, direction,
// mode) triple. Created on the first attempt, mutated on every later one,
// deleted only by a full reset.
type WordKnowledge struct {
	Identity         string    `json:"identity"`
	Target           string    `json:"target,omitempty"` // last seen target surface form
	Direction        Direction `json:"direction"`
	Mode             GameMode  `json:"mode"`
	Score            float64   `json:"score"` // rolling 0..100, recency weighted
	Attempts         int       `json:"attempts"`
	FirstTry         int       `json:"firstTry"`
	SecondTry        int       `json:"secondTry"`
	ThirdTry         int       `json:"thirdTry"`
	Failed           int       `json:"failed"`
	FirstPracticedAt time.Time `json:"firstPracticedAt,omitempty"`
	LastPracticedAt  time.Time `json:"lastPracticedAt,omitempty"`
}

// Normalize repairs out-of-range values before persistence: counts never go
// negative, the attempt total always equals the sum of the outcome buckets,
// and the score stays within [0, 100].
func (wk *WordKnowledge) Normalize() {
	if wk.FirstTry < 0 {
		wk.FirstTry = 0
	}
	if wk.SecondTry < 0 {
		wk.SecondTry = 0
	}
	if wk.ThirdTry < 0 {
		wk.ThirdTry = 0
	}
	if wk.Failed < 0 {
		wk.Failed = 0
	}
	wk.Attempts = wk.FirstTry + wk.SecondTry + wk.ThirdTry + wk.Failed
	if wk.Score < 0 {
		wk.Score = 0
	}
	if wk.Score > 100 {
		wk.Score = 100
	}
	wk.Direction = NormalizeDirection(wk.Direction)
	wk.Mode = NormalizeMode(wk.Mode)
}

// Clone returns an independent copy.
func (wk *WordKnowledge) Clone() *WordKnowledge {
	if wk == nil {
		return nil
	}
	clone := *wk
	return &clone
}

// RecordKey builds the per-word map key combining direction and mode.
func RecordKey(direction Direction, mode GameMode) string {
	return string(NormalizeDirection(direction)) + "|" + string(NormalizeMode(mode))
}

// SplitRecordKey is the inverse of RecordKey. Malformed keys normalize to
// the default direction and mode.
func SplitRecordKey(key string) (Direction, GameMode) {
	parts := strings.SplitN(key, "|", 2)
	if len(parts) != 2 {
		return NormalizeDirection(Direction(key)), ModeBasic
	}
	return NormalizeDirection(Direction(parts[0])), NormalizeMode(GameMode(parts[1]))
}

// StoreMeta carries aggregate counters for the knowledge store.
type StoreMeta struct {
	TotalRounds  int              `json:"totalRounds"`
	RoundsByMode map[GameMode]int `json:"roundsByMode,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// KnowledgeStore is the root persisted object: schema version, per-identity
// records keyed by RecordKey, the append-only round log, and aggregates.
type KnowledgeStore struct {
	Version int                                  `json:"version"`
	Words   map[string]map[string]*WordKnowledge `json:"words"`
	Rounds  []RoundSummary                       `json:"rounds,omitempty"`
	Meta    StoreMeta                            `json:"meta"`
}

// NewKnowledgeStore returns an empty store at the current schema version.
func NewKnowledgeStore(now time.Time) *KnowledgeStore {
	return &KnowledgeStore{
		Version: CurrentSchemaVersion,
		Words:   map[string]map[string]*WordKnowledge{},
		Meta: StoreMeta{
			RoundsByMode: map[GameMode]int{},
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

// Lookup returns the record for the triple, or nil when the word is unseen
// under that direction and mode.
func (ks *KnowledgeStore) Lookup(identity string, direction Direction, mode GameMode) *WordKnowledge {
	if ks == nil || ks.Words == nil {
		return nil
	}
	records, ok := ks.Words[identity]
	if !ok {
		return nil
	}
	return records[RecordKey(direction, mode)]
}

// LatestRecord returns the most recently practiced record for the identity
// and direction across all modes, if any exists.
func (ks *KnowledgeStore) LatestRecord(identity string, direction Direction) *WordKnowledge {
	if ks == nil || ks.Words == nil {
		return nil
	}
	direction = NormalizeDirection(direction)
	var latest *WordKnowledge
	for _, record := range ks.Words[identity] {
		if record == nil || record.Direction != direction {
			continue
		}
		if latest == nil || record.LastPracticedAt.After(latest.LastPracticedAt) {
			latest = record
		}
	}
	return latest
}

// Ensure returns the record for the triple, creating an empty one when the
// word has not been practiced under that direction and mode yet.
func (ks *KnowledgeStore) Ensure(identity string, direction Direction, mode GameMode) *WordKnowledge {
	if ks.Words == nil {
		ks.Words = map[string]map[string]*WordKnowledge{}
	}
	records, ok := ks.Words[identity]
	if !ok {
		records = map[string]*WordKnowledge{}
		ks.Words[identity] = records
	}
	key := RecordKey(direction, mode)
	record, ok := records[key]
	if !ok {
		record = &WordKnowledge{
			Identity:  identity,
			Direction: NormalizeDirection(direction),
			Mode:      NormalizeMode(mode),
		}
		records[key] = record
	}
	return record
}

// Clone deep-copies the store so snapshots handed to subscribers stay
// isolated from later mutations.
func (ks *KnowledgeStore) Clone() *KnowledgeStore {
	if ks == nil {
		return nil
	}
	clone := &KnowledgeStore{
		Version: ks.Version,
		Words:   make(map[string]map[string]*WordKnowledge, len(ks.Words)),
		Meta: StoreMeta{
			TotalRounds:  ks.Meta.TotalRounds,
			RoundsByMode: make(map[GameMode]int, len(ks.Meta.RoundsByMode)),
			CreatedAt:    ks.Meta.CreatedAt,
			UpdatedAt:    ks.Meta.UpdatedAt,
		},
	}
	for identity, records := range ks.Words {
		copied := make(map[string]*WordKnowledge, len(records))
		for key, record := range records {
			copied[key] = record.Clone()
		}
		clone.Words[identity] = copied
	}
	for mode, count := range ks.Meta.RoundsByMode {
		clone.Meta.RoundsByMode[mode] = count
	}
	if ks.Rounds != nil {
		clone.Rounds = make([]RoundSummary, len(ks.Rounds))
		for i, round := range ks.Rounds {
			clone.Rounds[i] = round.Clone()
		}
	}
	return clone
}
