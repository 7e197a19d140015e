package entity

import "time"

// WordOutcome pairs one word identity with how the round went for it.
type WordOutcome struct {
	Identity string        `json:"identity"`
	Outcome  AnswerOutcome `json:"outcome"`
}

// RoundSummary is one entry of the append-only round log.
type RoundSummary struct {
	ID          string        `json:"id"`
	Category    string        `json:"category"`
	Direction   Direction     `json:"direction"`
	Mode        GameMode      `json:"mode"`
	Outcomes    []WordOutcome `json:"outcomes"`
	CompletedAt time.Time     `json:"completedAt"`
}

// Clone returns an independent copy.
func (rs RoundSummary) Clone() RoundSummary {
	clone := rs
	if rs.Outcomes != nil {
		clone.Outcomes = make([]WordOutcome, len(rs.Outcomes))
		copy(clone.Outcomes, rs.Outcomes)
	}
	return clone
}

// RecentRounds remembers, per lesson or category id, the ordered word
// identities of the last few completed rounds. It only serves to bias
// selection away from immediate repeats and is bounded to a small number
// of rounds per category.
type RecentRounds struct {
	ByCategory map[string][][]string `json:"byCategory"`
}

// NewRecentRounds returns an empty history.
func NewRecentRounds() *RecentRounds {
	return &RecentRounds{ByCategory: map[string][][]string{}}
}

// Append records a completed round's word order for the category, evicting
// the oldest retained round once limit is reached. A limit below one keeps
// a single round.
func (rr *RecentRounds) Append(category string, identities []string, limit int) {
	if rr.ByCategory == nil {
		rr.ByCategory = map[string][][]string{}
	}
	if limit < 1 {
		limit = 1
	}
	sequence := make([]string, len(identities))
	copy(sequence, identities)
	rounds := append(rr.ByCategory[category], sequence)
	if len(rounds) > limit {
		rounds = rounds[len(rounds)-limit:]
	}
	rr.ByCategory[category] = rounds
}

// Last returns the most recent round for the category, or nil.
func (rr *RecentRounds) Last(category string) []string {
	if rr == nil || rr.ByCategory == nil {
		return nil
	}
	rounds := rr.ByCategory[category]
	if len(rounds) == 0 {
		return nil
	}
	return rounds[len(rounds)-1]
}

// Rounds returns every retained round for the category, oldest first.
func (rr *RecentRounds) Rounds(category string) [][]string {
	if rr == nil || rr.ByCategory == nil {
		return nil
	}
	return rr.ByCategory[category]
}

// Clone deep-copies the history.
func (rr *RecentRounds) Clone() *RecentRounds {
	if rr == nil {
		return nil
	}
	clone := &RecentRounds{ByCategory: make(map[string][][]string, len(rr.ByCategory))}
	for category, rounds := range rr.ByCategory {
		copied := make([][]string, len(rounds))
		for i, round := range rounds {
			sequence := make([]string, len(round))
			copy(sequence, round)
			copied[i] = sequence
		}
		clone.ByCategory[category] = copied
	}
	return clone
}
