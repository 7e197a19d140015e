package vocabulary

import (
	"testing"
	"testing/fstest"

	"github.com/hvirta/sanatreeni/internal/repository"
)

func TestLoad_EmbeddedContent(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if p.Count() == 0 {
		t.Fatalf("expected bundled vocabulary to contain words")
	}

	categories := p.Categories()
	if len(categories) == 0 {
		t.Fatalf("expected bundled categories")
	}
	for i := 1; i < len(categories); i++ {
		if categories[i-1].Order > categories[i].Order {
			t.Fatalf("categories not sorted by order: %v", categories)
		}
	}

	if _, ok := p.ByIdentity("hola"); !ok {
		t.Fatalf("expected hola in bundled vocabulary")
	}
}

func TestBySurface_PolysemousForms(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	senses := p.BySurface("tiempo")
	if len(senses) != 2 {
		t.Fatalf("expected two senses for tiempo, got %d", len(senses))
	}
	identities := map[string]bool{}
	for _, word := range senses {
		identities[word.Identity()] = true
	}
	if !identities["tiempo#time"] || !identities["tiempo#weather"] {
		t.Fatalf("expected tiempo#time and tiempo#weather, got %v", identities)
	}

	// surface lookup is case-insensitive
	if len(p.BySurface("  TIEMPO ")) != 2 {
		t.Fatalf("expected normalized surface lookup to find tiempo")
	}
}

func TestByCategory_ReturnsOnlyCategoryWords(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	words := p.ByCategory("food")
	if len(words) == 0 {
		t.Fatalf("expected food category words")
	}
	for _, word := range words {
		if word.Category != "food" {
			t.Fatalf("expected only food words, got %q in %q", word.Spanish, word.Category)
		}
	}

	if len(p.ByCategory("missing")) != 0 {
		t.Fatalf("expected empty slice for unknown category")
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	words, err := p.List(repository.ListQuery{
		Filter:  "category == 'verbs' && frequencyRank <= 100",
		OrderBy: "frequencyRank",
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(words) == 0 {
		t.Fatalf("expected common verbs under rank 100")
	}
	for i := 1; i < len(words); i++ {
		if words[i-1].FrequencyRank > words[i].FrequencyRank {
			t.Fatalf("expected ascending frequency rank, got %v", words)
		}
	}
	if words[0].Spanish != "ser" {
		t.Fatalf("expected ser as the most common verb, got %q", words[0].Spanish)
	}
}

func TestList_RejectsUnknownFilterField(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := p.List(repository.ListQuery{Filter: "secret == 'x'"}); err == nil {
		t.Fatalf("expected unknown filter field to be rejected")
	}
}

func TestLoadFS_RejectsDuplicateIdentity(t *testing.T) {
	fsys := fstest.MapFS{
		"data/a.json": &fstest.MapFile{Data: []byte(`{
			"id": "a", "title": "A", "order": 1,
			"words": [
				{"spanish": "sol", "finnish": ["aurinko"]},
				{"spanish": "sol", "finnish": ["aurinko"]}
			]
		}`)},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected duplicate identity to be rejected")
	}
}

func TestLoadFS_RequiresTranslations(t *testing.T) {
	fsys := fstest.MapFS{
		"data/a.json": &fstest.MapFile{Data: []byte(`{
			"id": "a", "title": "A", "order": 1,
			"words": [{"spanish": "sol", "finnish": []}]
		}`)},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected missing translations to be rejected")
	}
}
