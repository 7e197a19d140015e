package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hvirta/sanatreeni/internal/entity"
)

// legacyKnowledgeRecord is the per-word shape persisted before the schema
// carried identities and modes. Records were keyed by the bare Spanish
// surface form and split only by direction.
type legacyKnowledgeRecord struct {
	Target           string    `json:"target"`
	Score            float64   `json:"score"`
	Attempts         int       `json:"attempts"`
	FirstTry         int       `json:"firstTry"`
	SecondTry        int       `json:"secondTry"`
	ThirdTry         int       `json:"thirdTry"`
	Failed           int       `json:"failed"`
	FirstPracticedAt time.Time `json:"firstPracticedAt"`
	LastPracticedAt  time.Time `json:"lastPracticedAt"`
}

type legacyKnowledgeStore struct {
	Version int                                         `json:"version"`
	Words   map[string]map[string]legacyKnowledgeRecord `json:"words"`
}

// migrateKnowledge parses a persisted knowledge payload and upgrades it to
// the current schema when its version tag is behind. The version check runs
// first, so feeding an already-migrated payload through again is a no-op.
func migrateKnowledge(raw []byte, resolver WordResolver, log logrus.FieldLogger, clock func() time.Time) (*entity.KnowledgeStore, entity.MigrationReport, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, entity.MigrationReport{}, fmt.Errorf("%w: %v", entity.ErrInvalidPayload, err)
	}
	return migrateVersioned(raw, probe.Version, resolver, log, clock)
}

// migrateVersioned dispatches on an externally supplied version tag, used
// when the payload travels inside an export envelope.
func migrateVersioned(raw []byte, version int, resolver WordResolver, log logrus.FieldLogger, clock func() time.Time) (*entity.KnowledgeStore, entity.MigrationReport, error) {
	report := entity.MigrationReport{FromVersion: version, ToVersion: entity.CurrentSchemaVersion}
	switch {
	case version > entity.CurrentSchemaVersion:
		return nil, report, fmt.Errorf("%w: version %d", entity.ErrPayloadTooNew, version)
	case version == entity.CurrentSchemaVersion:
		store := &entity.KnowledgeStore{}
		if err := json.Unmarshal(raw, store); err != nil {
			return nil, report, fmt.Errorf("%w: %v", entity.ErrInvalidPayload, err)
		}
		repairStore(store)
		return store, report, nil
	default:
		return migrateLegacy(raw, version, resolver, log, clock)
	}
}

// migrateLegacy rebuilds a current-version store from a surface-keyed
// legacy payload. Records whose surface form no longer resolves to exactly
// one vocabulary entry are skipped with a warning rather than guessed at;
// everything resolvable keeps its counts and score untouched. Legacy data
// predates the round log and the kids mode, so migrated records land under
// the standard mode and the log starts empty.
func migrateLegacy(raw []byte, version int, resolver WordResolver, log logrus.FieldLogger, clock func() time.Time) (*entity.KnowledgeStore, entity.MigrationReport, error) {
	report := entity.MigrationReport{FromVersion: version, ToVersion: entity.CurrentSchemaVersion}

	var legacy legacyKnowledgeStore
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, report, fmt.Errorf("%w: %v", entity.ErrInvalidPayload, err)
	}

	store := entity.NewKnowledgeStore(clock())
	for _, surface := range sortedKeys(legacy.Words) {
		matches := resolver.BySurface(surface)
		switch len(matches) {
		case 0:
			report.SkippedRemoved = append(report.SkippedRemoved, surface)
			log.WithField("word", surface).Warn("skipping legacy record, word no longer in vocabulary")
			continue
		case 1:
		default:
			report.SkippedAmbiguous = append(report.SkippedAmbiguous, surface)
			log.WithFields(logrus.Fields{
				"word":   surface,
				"senses": len(matches),
			}).Warn("skipping legacy record, surface form now names several senses")
			continue
		}

		identity := matches[0].Identity()
		records := legacy.Words[surface]
		for _, dirKey := range sortedKeys(records) {
			direction := entity.ParseDirection(dirKey)
			if direction == entity.DirectionUnspecified {
				direction = entity.DirectionEsToFi
			}
			legacyRecord := records[dirKey]
			record := &entity.WordKnowledge{
				Identity:         identity,
				Target:           legacyRecord.Target,
				Direction:        direction,
				Mode:             entity.ModeBasic,
				Score:            legacyRecord.Score,
				FirstTry:         legacyRecord.FirstTry,
				SecondTry:        legacyRecord.SecondTry,
				ThirdTry:         legacyRecord.ThirdTry,
				Failed:           legacyRecord.Failed,
				FirstPracticedAt: legacyRecord.FirstPracticedAt,
				LastPracticedAt:  legacyRecord.LastPracticedAt,
			}
			record.Normalize()
			if store.Words[identity] == nil {
				store.Words[identity] = map[string]*entity.WordKnowledge{}
			}
			store.Words[identity][entity.RecordKey(direction, entity.ModeBasic)] = record
		}
		report.Migrated++
	}
	return store, report, nil
}

// repairStore fills in structural gaps of a parsed current-version payload
// so downstream code can rely on non-nil maps and normalized records.
func repairStore(store *entity.KnowledgeStore) {
	store.Version = entity.CurrentSchemaVersion
	if store.Words == nil {
		store.Words = map[string]map[string]*entity.WordKnowledge{}
	}
	for identity, records := range store.Words {
		for key, record := range records {
			if record == nil {
				delete(records, key)
				continue
			}
			if record.Identity == "" {
				record.Identity = identity
			}
			if record.Direction == entity.DirectionUnspecified || record.Mode == entity.ModeUnspecified {
				direction, mode := entity.SplitRecordKey(key)
				if record.Direction == entity.DirectionUnspecified {
					record.Direction = direction
				}
				if record.Mode == entity.ModeUnspecified {
					record.Mode = mode
				}
			}
			record.Normalize()
		}
	}
}
