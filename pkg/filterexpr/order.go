package filterexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OrderKey is one resolved ordering criterion.
type OrderKey struct {
	Field string
	Desc  bool
}

// OrderSchema describes ordering defaults and whitelisted keys. FallbackKey
// is appended as the final tiebreak whenever the user ordering does not
// already include it, so listings stay deterministic.
type OrderSchema struct {
	DefaultKey   string
	DefaultDesc  bool
	FallbackKey  string
	FallbackDesc bool
	Fields       map[string]ValueKind
}

func parseOrderBy(raw string, schema OrderSchema) ([]OrderKey, error) {
	if schema.Fields == nil {
		schema.Fields = map[string]ValueKind{}
	}

	if schema.DefaultKey == "" {
		return nil, errors.New("order schema default key required")
	}
	if schema.FallbackKey == "" {
		return nil, errors.New("order schema fallback key required")
	}
	if _, ok := schema.Fields[schema.DefaultKey]; !ok {
		return nil, fmt.Errorf("order key %q missing from schema fields", schema.DefaultKey)
	}
	if _, ok := schema.Fields[schema.FallbackKey]; !ok {
		return nil, fmt.Errorf("fallback order key %q missing from schema fields", schema.FallbackKey)
	}

	var keys []OrderKey
	seen := map[string]struct{}{}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		keys = append(keys, OrderKey{Field: schema.DefaultKey, Desc: schema.DefaultDesc})
		seen[schema.DefaultKey] = struct{}{}
	} else {
		for _, seg := range strings.Split(raw, ",") {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}

			parts := strings.Fields(seg)
			key := parts[0]
			if _, ok := schema.Fields[key]; !ok {
				return nil, fmt.Errorf("field %q cannot be used for ordering", key)
			}

			var desc bool
			switch len(parts) {
			case 1:
				desc = false
			case 2:
				switch strings.ToLower(parts[1]) {
				case "asc":
					desc = false
				case "desc":
					desc = true
				default:
					return nil, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
				}
			default:
				return nil, fmt.Errorf("invalid order segment %q", seg)
			}

			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("duplicate order key %q", key)
			}
			seen[key] = struct{}{}
			keys = append(keys, OrderKey{Field: key, Desc: desc})
		}
		if len(keys) == 0 {
			keys = append(keys, OrderKey{Field: schema.DefaultKey, Desc: schema.DefaultDesc})
			seen[schema.DefaultKey] = struct{}{}
		}
	}

	if _, ok := seen[schema.FallbackKey]; !ok {
		keys = append(keys, OrderKey{Field: schema.FallbackKey, Desc: schema.FallbackDesc})
	}

	return keys, nil
}

// OrderLess compares two attribute maps under the resolved ordering keys.
// Attributes must hold string, numeric, or time.Time values; incomparable
// or missing attributes tie.
func OrderLess(a, b map[string]any, keys []OrderKey) bool {
	for _, key := range keys {
		cmp := compareAttrs(a[key.Field], b[key.Field])
		if key.Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
	}
	return false
}

func compareAttrs(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0
		}
		return strings.Compare(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0
		}
		return compareTimes(av, bv)
	default:
		af, errA := toFloat(a)
		bf, errB := toFloat(b)
		if errA != nil || errB != nil {
			return 0
		}
		return compareFloats(af, bf)
	}
}
