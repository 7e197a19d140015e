package entity

import (
	"testing"
	"time"
)

func TestWordKnowledgeNormalize(t *testing.T) {
	record := WordKnowledge{
		FirstTry:  2,
		SecondTry: -3,
		ThirdTry:  1,
		Failed:    1,
		Attempts:  99,
		Score:     130,
	}
	record.Normalize()

	if record.SecondTry != 0 {
		t.Fatalf("expected negative bucket clamped, got %d", record.SecondTry)
	}
	if record.Attempts != 4 {
		t.Fatalf("expected attempts rebuilt from buckets, got %d", record.Attempts)
	}
	if record.Score != 100 {
		t.Fatalf("expected score capped at 100, got %v", record.Score)
	}
	if record.Direction != DirectionEsToFi || record.Mode != ModeBasic {
		t.Fatalf("expected defaults filled, got %s/%s", record.Direction, record.Mode)
	}

	record.Score = -5
	record.Normalize()
	if record.Score != 0 {
		t.Fatalf("expected score floored at 0, got %v", record.Score)
	}
}

func TestRecordKeyRoundTrip(t *testing.T) {
	cases := []struct {
		direction Direction
		mode      GameMode
	}{
		{DirectionEsToFi, ModeBasic},
		{DirectionFiToEs, ModeKids},
		{DirectionUnspecified, ModeUnspecified},
	}
	for _, c := range cases {
		direction, mode := SplitRecordKey(RecordKey(c.direction, c.mode))
		if direction != NormalizeDirection(c.direction) || mode != NormalizeMode(c.mode) {
			t.Errorf("%s/%s: round-trip gave %s/%s", c.direction, c.mode, direction, mode)
		}
	}

	direction, mode := SplitRecordKey("garbage")
	if direction != DirectionEsToFi || mode != ModeBasic {
		t.Fatalf("expected malformed key to normalize, got %s/%s", direction, mode)
	}
}

func TestKnowledgeStoreEnsureAndLookup(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewKnowledgeStore(now)

	if record := store.Lookup("gato", DirectionEsToFi, ModeBasic); record != nil {
		t.Fatalf("expected no record before first practice, got %+v", record)
	}

	record := store.Ensure("gato", DirectionUnspecified, ModeUnspecified)
	if record.Direction != DirectionEsToFi || record.Mode != ModeBasic {
		t.Fatalf("expected normalized triple, got %s/%s", record.Direction, record.Mode)
	}
	record.Score = 42

	if again := store.Ensure("gato", DirectionEsToFi, ModeBasic); again.Score != 42 {
		t.Fatalf("expected Ensure to return the existing record, got %+v", again)
	}
	if got := store.Lookup("gato", DirectionEsToFi, ModeBasic); got == nil || got.Score != 42 {
		t.Fatalf("expected lookup to find the record, got %+v", got)
	}
}

func TestKnowledgeStoreLatestRecord(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewKnowledgeStore(now)

	basic := store.Ensure("gato", DirectionEsToFi, ModeBasic)
	basic.LastPracticedAt = now
	kids := store.Ensure("gato", DirectionEsToFi, ModeKids)
	kids.LastPracticedAt = now.Add(time.Hour)
	other := store.Ensure("gato", DirectionFiToEs, ModeBasic)
	other.LastPracticedAt = now.Add(2 * time.Hour)

	latest := store.LatestRecord("gato", DirectionEsToFi)
	if latest == nil || latest.Mode != ModeKids {
		t.Fatalf("expected the kids record to be latest for es-fi, got %+v", latest)
	}
	if store.LatestRecord("perro", DirectionEsToFi) != nil {
		t.Fatalf("expected nil for unseen identity")
	}
}

func TestKnowledgeStoreCloneIsolation(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewKnowledgeStore(now)
	store.Ensure("gato", DirectionEsToFi, ModeBasic).Score = 10
	store.Rounds = append(store.Rounds, RoundSummary{
		ID:       "r1",
		Outcomes: []WordOutcome{{Identity: "gato", Outcome: OutcomeFirstTry}},
	})
	store.Meta.TotalRounds = 1
	store.Meta.RoundsByMode[ModeBasic] = 1

	clone := store.Clone()
	clone.Ensure("gato", DirectionEsToFi, ModeBasic).Score = 99
	clone.Rounds[0].Outcomes[0].Outcome = OutcomeFailed
	clone.Meta.RoundsByMode[ModeBasic] = 5

	if got := store.Lookup("gato", DirectionEsToFi, ModeBasic).Score; got != 10 {
		t.Fatalf("expected original score untouched, got %v", got)
	}
	if store.Rounds[0].Outcomes[0].Outcome != OutcomeFirstTry {
		t.Fatalf("expected original round log untouched")
	}
	if store.Meta.RoundsByMode[ModeBasic] != 1 {
		t.Fatalf("expected original meta untouched")
	}
}
