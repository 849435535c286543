package client

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// keysOf collects the distinct non-empty keys of parents.
func keysOf[P any](parents []*P, key func(*P) string) []string {
	seen := make(map[string]bool, len(parents))
	out := make([]string, 0, len(parents))
	for _, p := range parents {
		k := key(p)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// attachMany hands each parent its children, paged per parent. A negative
// take keeps the last rows.
func attachMany[P any, C any](parents []*P, children []*C, childKeys []string, key func(*P) string, set func(*P, []*C), skip, take *int) {
	groups := make(map[string][]*C, len(parents))
	for i, c := range children {
		groups[childKeys[i]] = append(groups[childKeys[i]], c)
	}
	for _, p := range parents {
		list := slices.Clone(groups[key(p)])
		if list == nil {
			list = []*C{}
		}
		if take != nil && *take < 0 {
			slices.Reverse(list)
			list = window(list, skip, take)
			slices.Reverse(list)
		} else {
			list = window(list, skip, take)
		}
		set(p, list)
	}
}

// attachOne hands each parent the row whose key matches key(p).
func attachOne[P any, C any](parents []*P, children []*C, childKeys []string, key func(*P) string, set func(*P, *C)) {
	byKey := make(map[string]*C, len(children))
	for i, c := range children {
		byKey[childKeys[i]] = c
	}
	for _, p := range parents {
		if c, ok := byKey[key(p)]; ok {
			set(p, c)
		}
	}
}

// unique compiles a WhereUniqueInput; at least one key must be set.
func unique(s scope, model string, keys map[string]*string) (sq.Sqlizer, error) {
	eq := sq.Eq{}
	names := make([]string, 0, len(keys))
	for col, v := range keys {
		names = append(names, col)
		if v != nil {
			eq[s.col(col)] = *v
		}
	}
	if len(eq) == 0 {
		sort.Strings(names)
		return nil, validationf("%s unique filter needs one of: %s", model, strings.Join(names, ", "))
	}
	return eq, nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return validationf("%s is required", field)
	}
	return nil
}

func checkJSON(field string, j types.JSON) error {
	if j.IsNull() || json.Valid(j) {
		return nil
	}
	return validationf("%s is not valid JSON", field)
}

func nullTime(t *time.Time) types.NullTimestamp {
	if t == nil {
		return types.NullTimestamp{}
	}
	return types.NewNullTimestamp(*t)
}

func timeOr(t *time.Time, def types.Timestamp) types.Timestamp {
	if t == nil {
		return def
	}
	return types.NewTimestamp(*t)
}
