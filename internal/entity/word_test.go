package entity

import "testing"

func TestWordIdentity(t *testing.T) {
	plain := Word{Spanish: "gato"}
	if got := plain.Identity(); got != "gato" {
		t.Fatalf("expected surface identity, got %q", got)
	}
	sense := Word{ID: "tiempo#weather", Spanish: "tiempo"}
	if got := sense.Identity(); got != "tiempo#weather" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}

func TestWordAcceptsAnswer(t *testing.T) {
	word := Word{Spanish: "gato", Finnish: []string{"kissa", "katti"}}

	cases := []struct {
		direction Direction
		answer    string
		want      bool
	}{
		{DirectionEsToFi, "kissa", true},
		{DirectionEsToFi, "  KATTI \n", true},
		{DirectionEsToFi, "koira", false},
		{DirectionEsToFi, "", false},
		{DirectionFiToEs, "gato", true},
		{DirectionFiToEs, "Gato", true},
		{DirectionFiToEs, "kissa", false},
	}
	for _, c := range cases {
		if got := word.AcceptsAnswer(c.direction, c.answer); got != c.want {
			t.Errorf("%s %q: expected %v, got %v", c.direction, c.answer, c.want, got)
		}
	}
}

func TestWordPromptAndAnswers(t *testing.T) {
	word := Word{Spanish: "perro", Finnish: []string{"koira"}}

	if got := word.Prompt(DirectionEsToFi); got != "perro" {
		t.Fatalf("expected Spanish prompt, got %q", got)
	}
	if got := word.Prompt(DirectionFiToEs); got != "koira" {
		t.Fatalf("expected Finnish prompt, got %q", got)
	}
	if got := word.Prompt(DirectionUnspecified); got != "perro" {
		t.Fatalf("expected default direction to show Spanish, got %q", got)
	}
	answers := word.Answers(DirectionFiToEs)
	if len(answers) != 1 || answers[0] != "perro" {
		t.Fatalf("expected Spanish answer set, got %v", answers)
	}
}

func TestWordDisplayName(t *testing.T) {
	if got := (Word{Spanish: "sol"}).DisplayName(); got != "sol" {
		t.Fatalf("expected bare surface, got %q", got)
	}
	labelled := Word{Spanish: "tiempo", SenseLabel: "sää"}
	if got := labelled.DisplayName(); got != "tiempo (sää)" {
		t.Fatalf("expected labelled form, got %q", got)
	}
}
