package entity

import (
	"reflect"
	"testing"
)

func TestRecentRoundsAppendEvicts(t *testing.T) {
	history := NewRecentRounds()
	history.Append("animals", []string{"gato"}, 2)
	history.Append("animals", []string{"perro"}, 2)
	history.Append("animals", []string{"pájaro"}, 2)

	want := [][]string{{"perro"}, {"pájaro"}}
	if got := history.Rounds("animals"); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if last := history.Last("animals"); !reflect.DeepEqual(last, []string{"pájaro"}) {
		t.Fatalf("expected last round, got %v", last)
	}
	if history.Last("food") != nil {
		t.Fatalf("expected nil for untouched category")
	}
}

func TestRecentRoundsAppendCopiesInput(t *testing.T) {
	history := NewRecentRounds()
	sequence := []string{"sol", "luna"}
	history.Append("sky", sequence, 3)
	sequence[0] = "mutated"

	if got := history.Last("sky")[0]; got != "sol" {
		t.Fatalf("expected stored copy to be isolated, got %q", got)
	}
}

func TestRecentRoundsCloneIsolation(t *testing.T) {
	history := NewRecentRounds()
	history.Append("sky", []string{"sol"}, 3)

	clone := history.Clone()
	clone.Append("sky", []string{"luna"}, 3)
	clone.ByCategory["sky"][0][0] = "mutated"

	if len(history.Rounds("sky")) != 1 || history.Last("sky")[0] != "sol" {
		t.Fatalf("expected original history untouched, got %v", history.Rounds("sky"))
	}
}

func TestRoundSummaryClone(t *testing.T) {
	round := RoundSummary{
		ID:       "r1",
		Outcomes: []WordOutcome{{Identity: "sol", Outcome: OutcomeFirstTry}},
	}
	clone := round.Clone()
	clone.Outcomes[0].Outcome = OutcomeFailed

	if round.Outcomes[0].Outcome != OutcomeFirstTry {
		t.Fatalf("expected original outcomes untouched")
	}
}
