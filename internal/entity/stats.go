package entity

import "time"

// DirectionKnowledge summarizes one practice direction over a word set.
type DirectionKnowledge struct {
	Practiced    int
	Known        int
	AverageScore float64
}

// CategoryKnowledge is the per-category read model: for each direction, how
// many of the category's words were practiced, how many count as known, and
// the average score over the practiced ones.
type CategoryKnowledge struct {
	CategoryID   string
	TotalWords   int
	PerDirection map[Direction]DirectionKnowledge
}

// Statistics aggregates knowledge across all words and rounds.
type Statistics struct {
	WordsPracticed int
	WordsMastered  int
	WordsWeak      int
	TotalRounds    int
	RoundsByMode   map[GameMode]int
}

// ExportPayload is the self-describing document produced by an export and
// consumed by an import, suitable for writing to a file.
type ExportPayload struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Knowledge  *KnowledgeStore `json:"knowledge"`
}

// ImportReport describes the outcome of merging an imported payload.
type ImportReport struct {
	Added  int // records new to this store
	Merged int // records where the imported side was newer and won
	Kept   int // records where the existing side was newer and won
}

// MigrationReport lists what a schema upgrade carried over and what it had
// to drop.
type MigrationReport struct {
	FromVersion      int
	ToVersion        int
	Migrated         int
	SkippedAmbiguous []string // surface forms now split across several senses
	SkippedRemoved   []string // surface forms absent from current vocabulary
}

// Skipped counts the legacy records the migration had to drop.
func (mr MigrationReport) Skipped() int {
	return len(mr.SkippedAmbiguous) + len(mr.SkippedRemoved)
}
