// Package vocabulary loads the bundled Spanish–Finnish content and answers
// lookups for the selection engine, the migration routine, and the CLI.
package vocabulary

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"

	"github.com/samber/lo"

	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/repository"
	"github.com/hvirta/sanatreeni/pkg/filterexpr"
)

//go:embed data/*.json
var content embed.FS

// Category groups words for lesson and quiz flows.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

type categoryFile struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Order int           `json:"order"`
	Words []entity.Word `json:"words"`
}

// Provider exposes the static vocabulary. Entries never change after Load,
// so all methods are safe for concurrent use.
type Provider struct {
	categories []Category
	words      []entity.Word
	byIdentity map[string]entity.Word
	bySurface  map[string][]entity.Word
	byCategory map[string][]entity.Word
}

// Load parses the embedded content.
func Load() (*Provider, error) {
	return LoadFS(content)
}

// LoadFS parses category files from the "data/" directory of the given
// filesystem. Exposed so tests can load trimmed fixtures.
func LoadFS(fsys fs.FS) (*Provider, error) {
	entries, err := fs.ReadDir(fsys, "data")
	if err != nil {
		return nil, fmt.Errorf("read vocabulary dir: %w", err)
	}

	p := &Provider{
		byIdentity: map[string]entity.Word{},
		bySurface:  map[string][]entity.Word{},
		byCategory: map[string][]entity.Word{},
	}

	for _, dirEntry := range entries {
		if dirEntry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, "data/"+dirEntry.Name())
		if err != nil {
			return nil, fmt.Errorf("read vocabulary file %s: %w", dirEntry.Name(), err)
		}
		var file categoryFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse vocabulary file %s: %w", dirEntry.Name(), err)
		}
		if file.ID == "" {
			return nil, fmt.Errorf("vocabulary file %s: missing category id", dirEntry.Name())
		}
		if _, dup := p.byCategory[file.ID]; dup {
			return nil, fmt.Errorf("vocabulary file %s: duplicate category %q", dirEntry.Name(), file.ID)
		}

		p.categories = append(p.categories, Category{ID: file.ID, Title: file.Title, Order: file.Order})
		p.byCategory[file.ID] = []entity.Word{}

		for i, word := range file.Words {
			word.Category = file.ID
			if word.Spanish == "" {
				return nil, fmt.Errorf("vocabulary %s word %d: missing spanish form", file.ID, i)
			}
			if len(word.Finnish) == 0 {
				return nil, fmt.Errorf("vocabulary %s word %q: missing finnish translations", file.ID, word.Spanish)
			}
			identity := word.Identity()
			if _, dup := p.byIdentity[identity]; dup {
				return nil, fmt.Errorf("vocabulary %s word %q: duplicate identity %q", file.ID, word.Spanish, identity)
			}

			p.byIdentity[identity] = word
			surface := entity.NormalizeWordToken(word.Spanish)
			p.bySurface[surface] = append(p.bySurface[surface], word)
			p.byCategory[file.ID] = append(p.byCategory[file.ID], word)
			p.words = append(p.words, word)
		}
	}

	sort.SliceStable(p.categories, func(i, j int) bool {
		return p.categories[i].Order < p.categories[j].Order
	})

	return p, nil
}

// All returns every vocabulary entry.
func (p *Provider) All() []entity.Word {
	words := make([]entity.Word, len(p.words))
	copy(words, p.words)
	return words
}

// Count returns the number of entries.
func (p *Provider) Count() int { return len(p.words) }

// Categories returns the categories sorted by display order.
func (p *Provider) Categories() []Category {
	categories := make([]Category, len(p.categories))
	copy(categories, p.categories)
	return categories
}

// CategoryByID returns one category's metadata.
func (p *Provider) CategoryByID(id string) (Category, bool) {
	for _, category := range p.categories {
		if category.ID == id {
			return category, true
		}
	}
	return Category{}, false
}

// ByCategory returns the entries of one category in content order. The
// result is empty for unknown categories.
func (p *Provider) ByCategory(id string) []entity.Word {
	words := p.byCategory[id]
	copied := make([]entity.Word, len(words))
	copy(copied, words)
	return copied
}

// BySurface returns every entry whose Spanish surface form matches,
// normalized case-insensitively. Polysemous forms yield several entries.
func (p *Provider) BySurface(form string) []entity.Word {
	words := p.bySurface[entity.NormalizeWordToken(form)]
	copied := make([]entity.Word, len(words))
	copy(copied, words)
	return copied
}

// ByIdentity looks up one entry by its stable identity.
func (p *Provider) ByIdentity(identity string) (entity.Word, bool) {
	word, ok := p.byIdentity[identity]
	return word, ok
}

// Unknown frequency ranks sort and filter as very rare instead of rank 0,
// which would read as "most common".
const unknownRankSentinel = 99999

var listSchema = filterexpr.Schema{
	Filter: map[string]filterexpr.FilterField{
		"identity": {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
		"spanish":  {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpSW, filterexpr.OpIN}},
		"category": {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
		"pos":      {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
		"gender":   {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ}},
		"frequencyRank": {
			Kind: filterexpr.KindNumber,
			Ops:  []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpGT, filterexpr.OpGTE, filterexpr.OpLT, filterexpr.OpLTE},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultKey:  "category",
		FallbackKey: "identity",
		Fields: map[string]filterexpr.ValueKind{
			"identity":      filterexpr.KindString,
			"spanish":       filterexpr.KindString,
			"category":      filterexpr.KindString,
			"frequencyRank": filterexpr.KindNumber,
		},
	},
}

func wordAttrs(word entity.Word) map[string]any {
	rank := word.FrequencyRank
	if rank <= 0 {
		rank = unknownRankSentinel
	}
	return map[string]any{
		"identity":      word.Identity(),
		"spanish":       word.Spanish,
		"category":      word.Category,
		"pos":           word.Pos,
		"gender":        word.Gender,
		"frequencyRank": rank,
	}
}

// List filters, orders, and paginates the vocabulary according to the query.
func (p *Provider) List(query repository.ListQuery) ([]entity.Word, error) {
	matcher, orderKeys, err := filterexpr.Bind(&query, listSchema)
	if err != nil {
		return nil, err
	}

	attrs := lo.Map(p.words, func(word entity.Word, _ int) map[string]any {
		return wordAttrs(word)
	})

	var selected []int
	for i := range p.words {
		matched, err := matcher.Match(attrs[i])
		if err != nil {
			return nil, err
		}
		if matched {
			selected = append(selected, i)
		}
	}

	sort.SliceStable(selected, func(a, b int) bool {
		return filterexpr.OrderLess(attrs[selected[a]], attrs[selected[b]], orderKeys)
	})

	words := lo.Map(selected, func(idx int, _ int) entity.Word {
		return p.words[idx]
	})

	if query.PageSize > 0 {
		offset := int(query.Offset())
		if offset < 0 {
			offset = 0
		}
		if offset >= len(words) {
			return []entity.Word{}, nil
		}
		end := offset + int(query.PageSize)
		if end > len(words) {
			end = len(words)
		}
		words = words[offset:end]
	}

	return words, nil
}
