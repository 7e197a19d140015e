package entity

import "strings"

// Word represents one learnable vocabulary unit: a Spanish surface form and
// the Finnish translations accepted as answers. Entries are loaded from
// bundled content at startup and never mutated at runtime.
type Word struct {
	ID            string   `json:"id,omitempty"` // explicit identity for polysemous forms, e.g. "tiempo#time"
	Spanish       string   `json:"spanish"`
	Finnish       []string `json:"finnish"`
	SenseLabel    string   `json:"senseLabel,omitempty"`
	Category      string   `json:"category"`
	FrequencyRank int      `json:"frequencyRank,omitempty"` // 1 = most common, 0 = unknown
	Pos           string   `json:"pos,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Identity returns the stable key used to track this word in the knowledge
// store: the explicit ID when present, otherwise the Spanish surface form.
// Two entries sharing a surface form but carrying different IDs are distinct
// learning items and never collide under one record.
func (w Word) Identity() string {
	if w.ID != "" {
		return w.ID
	}
	return w.Spanish
}

// Prompt returns the surface form shown to the learner for the direction.
func (w Word) Prompt(direction Direction) string {
	if NormalizeDirection(direction) == DirectionFiToEs {
		if len(w.Finnish) > 0 {
			return w.Finnish[0]
		}
		return ""
	}
	return w.Spanish
}

// Answers returns every surface form accepted as a correct answer for the
// direction.
func (w Word) Answers(direction Direction) []string {
	if NormalizeDirection(direction) == DirectionFiToEs {
		return []string{w.Spanish}
	}
	return w.Finnish
}

// AcceptsAnswer reports whether the given input counts as a correct answer
// for the direction. Comparison is case-insensitive on trimmed tokens.
func (w Word) AcceptsAnswer(direction Direction, answer string) bool {
	token := NormalizeWordToken(answer)
	if token == "" {
		return false
	}
	for _, accepted := range w.Answers(direction) {
		if NormalizeWordToken(accepted) == token {
			return true
		}
	}
	return false
}

// DisplayName renders the word with its sense label when one exists, so
// polysemous senses stay distinguishable in lists and logs.
func (w Word) DisplayName() string {
	if w.SenseLabel == "" {
		return w.Spanish
	}
	return w.Spanish + " (" + w.SenseLabel + ")"
}

// NormalizeWordToken lowercases and trims a surface form for comparisons.
func NormalizeWordToken(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}
