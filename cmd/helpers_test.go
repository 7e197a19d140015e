package cmd

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"

	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/vocabulary"
)

func testProvider(t *testing.T) *vocabulary.Provider {
	t.Helper()
	fsys := fstest.MapFS{
		"data/colors.json": &fstest.MapFile{Data: []byte(`{
			"id": "colors", "title": "Värit", "order": 1,
			"words": [
				{"spanish": "rojo", "finnish": ["punainen"]},
				{"spanish": "azul", "finnish": ["sininen"]}
			]
		}`)},
	}
	provider, err := vocabulary.LoadFS(fsys)
	if err != nil {
		t.Fatal(err)
	}
	return provider
}

func Test_resolvePool(t *testing.T) {
	provider := testProvider(t)

	words, key, err := resolvePool(provider, "")
	if err != nil {
		t.Fatal(err)
	}
	if key != poolAll || len(words) != 2 {
		t.Fatalf("empty category: got key %q with %d words", key, len(words))
	}

	words, key, err = resolvePool(provider, "  Colors ")
	if err != nil {
		t.Fatal(err)
	}
	if key != "colors" || len(words) != 2 {
		t.Fatalf("named category: got key %q with %d words", key, len(words))
	}

	if _, _, err := resolvePool(provider, "animals"); !errors.Is(err, entity.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func Test_confirm(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"k\n", true},
		{"kyllä\n", true},
		{"KYLLA\n", true},
		{"\n", false},
		{"e\n", false},
		{"joo\n", false},
	}
	for _, c := range cases {
		cmd := &cobra.Command{}
		cmd.SetIn(strings.NewReader(c.input))
		cmd.SetOut(io.Discard)
		if got := confirm(cmd, "Jatketaanko?"); got != c.want {
			t.Fatalf("%q -> got %v want %v", c.input, got, c.want)
		}
	}
}
