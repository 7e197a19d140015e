package entity

import "strings"

// Direction identifies which language is shown as the prompt and which is
// expected as the answer. Knowledge is tracked independently per direction.
type Direction string

const (
	DirectionUnspecified Direction = ""
	DirectionEsToFi      Direction = "es-fi"
	DirectionFiToEs      Direction = "fi-es"
)

// Directions lists the supported practice directions.
func Directions() []Direction {
	return []Direction{DirectionEsToFi, DirectionFiToEs}
}

// ParseDirection converts an arbitrary string into a supported Direction.
func ParseDirection(code string) Direction {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "es-fi", "es_fi", "esfi":
		return DirectionEsToFi
	case "fi-es", "fi_es", "fies":
		return DirectionFiToEs
	default:
		return DirectionUnspecified
	}
}

// NormalizeDirection ensures the direction falls back to a supported value
// (defaults to Spanish prompts).
func NormalizeDirection(d Direction) Direction {
	switch d {
	case DirectionEsToFi, DirectionFiToEs:
		return d
	default:
		return DirectionEsToFi
	}
}

// GameMode distinguishes the standard quiz from the simplified children's
// game. Records are kept separately per mode.
type GameMode string

const (
	ModeUnspecified GameMode = ""
	ModeBasic       GameMode = "basic"
	ModeKids        GameMode = "kids"
)

// ParseMode converts an arbitrary string into a supported GameMode.
func ParseMode(code string) GameMode {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "basic":
		return ModeBasic
	case "kids":
		return ModeKids
	default:
		return ModeUnspecified
	}
}

// NormalizeMode ensures the mode falls back to the standard game.
func NormalizeMode(m GameMode) GameMode {
	switch m {
	case ModeBasic, ModeKids:
		return m
	default:
		return ModeBasic
	}
}

// AnswerOutcome classifies one answered word by how many tries it took.
type AnswerOutcome string

const (
	OutcomeFirstTry  AnswerOutcome = "first"
	OutcomeSecondTry AnswerOutcome = "second"
	OutcomeThirdTry  AnswerOutcome = "third"
	OutcomeFailed    AnswerOutcome = "failed"
)

// Valid reports whether the outcome is one of the supported buckets.
func (o AnswerOutcome) Valid() bool {
	switch o {
	case OutcomeFirstTry, OutcomeSecondTry, OutcomeThirdTry, OutcomeFailed:
		return true
	default:
		return false
	}
}

// OutcomeForTry maps a successful try number (1-based) to its outcome
// bucket. Anything beyond the third try counts as failed.
func OutcomeForTry(try int) AnswerOutcome {
	switch try {
	case 1:
		return OutcomeFirstTry
	case 2:
		return OutcomeSecondTry
	case 3:
		return OutcomeThirdTry
	default:
		return OutcomeFailed
	}
}

// ParseOutcome converts an arbitrary string into a supported AnswerOutcome.
func ParseOutcome(code string) AnswerOutcome {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "first", "1":
		return OutcomeFirstTry
	case "second", "2":
		return OutcomeSecondTry
	case "third", "3":
		return OutcomeThirdTry
	case "failed", "fail":
		return OutcomeFailed
	default:
		return AnswerOutcome(strings.ToLower(strings.TrimSpace(code)))
	}
}
