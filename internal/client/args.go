package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// OrderBy is one ORDER BY term. In JSON both {"field":"createdAt",
// "direction":"desc"} and {"createdAt":"desc"} are accepted.
type OrderBy[F ~string] struct {
	Field     F          `json:"field"`
	Direction SortOrder  `json:"direction,omitempty"`
	Nulls     NullsOrder `json:"nulls,omitempty"`
}

type orderByJSON[F ~string] OrderBy[F]

func (o *OrderBy[F]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw["field"]; ok {
		var plain orderByJSON[F]
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}
		*o = OrderBy[F](plain)
		return nil
	}
	if len(raw) != 1 {
		return fmt.Errorf("orderBy object must name exactly one field, got %d", len(raw))
	}
	for name, value := range raw {
		o.Field = F(name)
		if isObject(value) {
			var sort struct {
				Sort  SortOrder  `json:"sort"`
				Nulls NullsOrder `json:"nulls"`
			}
			if err := json.Unmarshal(value, &sort); err != nil {
				return err
			}
			o.Direction, o.Nulls = sort.Sort, sort.Nulls
			continue
		}
		if err := json.Unmarshal(value, &o.Direction); err != nil {
			return err
		}
	}
	return nil
}

// Orderings is a list of ORDER BY terms; JSON also accepts a single term.
type Orderings[F ~string] []OrderBy[F]

func (o *Orderings[F]) UnmarshalJSON(data []byte) error {
	if isObject(data) {
		var one OrderBy[F]
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*o = Orderings[F]{one}
		return nil
	}
	var list []OrderBy[F]
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*o = list
	return nil
}

// FieldSet lists scalar fields. JSON accepts an array of names or an object
// of name → true.
type FieldSet[F ~string] []F

func (s *FieldSet[F]) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		var list []F
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := FieldSet[F]{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		var on bool
		if err := dec.Decode(&on); err != nil {
			return err
		}
		if on {
			out = append(out, F(tok.(string)))
		}
	}
	*s = out
	return nil
}

func (s FieldSet[F]) has(name string) bool {
	for _, f := range s {
		if string(f) == name {
			return true
		}
	}
	return false
}

// FindManyArgs drives FindMany and FindFirst and nested to-many includes.
// In an include, JSON true stands for the zero value.
type FindManyArgs[W any, U any, F ~string, I any] struct {
	Where    *W           `json:"where,omitempty"`
	OrderBy  Orderings[F] `json:"orderBy,omitempty"`
	Cursor   *U           `json:"cursor,omitempty"`
	Skip     *int         `json:"skip,omitempty"`
	Take     *int         `json:"take,omitempty"`
	Distinct []F          `json:"distinct,omitempty"`
	Select   FieldSet[F]  `json:"select,omitempty"`
	Include  *I           `json:"include,omitempty"`
}

type findManyArgsJSON[W any, U any, F ~string, I any] FindManyArgs[W, U, F, I]

func (a *FindManyArgs[W, U, F, I]) UnmarshalJSON(data []byte) error {
	if isTrue(data) {
		*a = FindManyArgs[W, U, F, I]{}
		return nil
	}
	var plain findManyArgsJSON[W, U, F, I]
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	*a = FindManyArgs[W, U, F, I](plain)
	return nil
}

// RelationArgs drives a nested to-one include.
type RelationArgs[I any] struct {
	Include *I `json:"include,omitempty"`
}

type relationArgsJSON[I any] RelationArgs[I]

func (a *RelationArgs[I]) UnmarshalJSON(data []byte) error {
	if isTrue(data) {
		*a = RelationArgs[I]{}
		return nil
	}
	var plain relationArgsJSON[I]
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	*a = RelationArgs[I](plain)
	return nil
}

type FindUniqueArgs[U any, F ~string, I any] struct {
	Where   U           `json:"where"`
	Select  FieldSet[F] `json:"select,omitempty"`
	Include *I          `json:"include,omitempty"`
}

type CreateArgs[C any, F ~string, I any] struct {
	Data    C           `json:"data"`
	Select  FieldSet[F] `json:"select,omitempty"`
	Include *I          `json:"include,omitempty"`
}

type CreateManyArgs[C any, F ~string] struct {
	Data           []C         `json:"data"`
	SkipDuplicates bool        `json:"skipDuplicates,omitempty"`
	Select         FieldSet[F] `json:"select,omitempty"`
}

type UpdateArgs[U any, D any, F ~string, I any] struct {
	Where   U           `json:"where"`
	Data    D           `json:"data"`
	Select  FieldSet[F] `json:"select,omitempty"`
	Include *I          `json:"include,omitempty"`
}

type UpdateManyArgs[W any, D any, F ~string] struct {
	Where  *W          `json:"where,omitempty"`
	Data   D           `json:"data"`
	Limit  *int        `json:"limit,omitempty"`
	Select FieldSet[F] `json:"select,omitempty"`
}

type UpsertArgs[U any, C any, D any, F ~string, I any] struct {
	Where   U           `json:"where"`
	Create  C           `json:"create"`
	Update  D           `json:"update"`
	Select  FieldSet[F] `json:"select,omitempty"`
	Include *I          `json:"include,omitempty"`
}

type DeleteArgs[U any, F ~string, I any] struct {
	Where   U           `json:"where"`
	Select  FieldSet[F] `json:"select,omitempty"`
	Include *I          `json:"include,omitempty"`
}

type DeleteManyArgs[W any] struct {
	Where *W   `json:"where,omitempty"`
	Limit *int `json:"limit,omitempty"`
}

type CountArgs[W any, F ~string] struct {
	Where   *W           `json:"where,omitempty"`
	OrderBy Orderings[F] `json:"orderBy,omitempty"`
	Skip    *int         `json:"skip,omitempty"`
	Take    *int         `json:"take,omitempty"`
}

// AggregateArgs selects aggregates over the rows matched by Where and
// windowed by OrderBy/Skip/Take. "_all" in Count is the same as CountAll.
type AggregateArgs[W any, F ~string] struct {
	Where    *W           `json:"where,omitempty"`
	OrderBy  Orderings[F] `json:"orderBy,omitempty"`
	Skip     *int         `json:"skip,omitempty"`
	Take     *int         `json:"take,omitempty"`
	CountAll bool         `json:"countAll,omitempty"`
	Count    FieldSet[F]  `json:"_count,omitempty"`
	Avg      FieldSet[F]  `json:"_avg,omitempty"`
	Sum      FieldSet[F]  `json:"_sum,omitempty"`
	Min      FieldSet[F]  `json:"_min,omitempty"`
	Max      FieldSet[F]  `json:"_max,omitempty"`
}

// Having filters groups on a grouped field (Func empty) or on an aggregate
// of Field. An empty Field with Func _count counts rows.
type Having[F ~string] struct {
	Func   AggregateFunc `json:"func,omitempty"`
	Field  F             `json:"field,omitempty"`
	Equals any           `json:"equals,omitempty"`
	Not    any           `json:"not,omitempty"`
	Lt     any           `json:"lt,omitempty"`
	Lte    any           `json:"lte,omitempty"`
	Gt     any           `json:"gt,omitempty"`
	Gte    any           `json:"gte,omitempty"`
}

// GroupOrderBy orders groups by a grouped field or an aggregate.
type GroupOrderBy[F ~string] struct {
	Func      AggregateFunc `json:"func,omitempty"`
	Field     F             `json:"field,omitempty"`
	Direction SortOrder     `json:"direction,omitempty"`
}

type GroupByArgs[W any, F ~string] struct {
	By       []F               `json:"by"`
	Where    *W                `json:"where,omitempty"`
	Having   []Having[F]       `json:"having,omitempty"`
	OrderBy  []GroupOrderBy[F] `json:"orderBy,omitempty"`
	Skip     *int              `json:"skip,omitempty"`
	Take     *int              `json:"take,omitempty"`
	CountAll bool              `json:"countAll,omitempty"`
	Count    FieldSet[F]       `json:"_count,omitempty"`
	Avg      FieldSet[F]       `json:"_avg,omitempty"`
	Sum      FieldSet[F]       `json:"_sum,omitempty"`
	Min      FieldSet[F]       `json:"_min,omitempty"`
	Max      FieldSet[F]       `json:"_max,omitempty"`
}

// BatchPayload reports how many rows a bulk write touched.
type BatchPayload struct {
	Count int64 `json:"count"`
}

// AggregateResult holds aggregate values keyed by field name. Count uses
// "_all" for the row count.
type AggregateResult struct {
	Count map[string]int64 `json:"_count,omitempty"`
	Avg   map[string]any   `json:"_avg,omitempty"`
	Sum   map[string]any   `json:"_sum,omitempty"`
	Min   map[string]any   `json:"_min,omitempty"`
	Max   map[string]any   `json:"_max,omitempty"`
}

// GroupByRow is one group: the values of the By fields plus aggregates.
type GroupByRow struct {
	Key map[string]any
	AggregateResult
}

// MarshalJSON flattens the key fields next to the aggregates.
func (r GroupByRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Key)+5)
	for k, v := range r.Key {
		out[k] = v
	}
	if r.Count != nil {
		out["_count"] = r.Count
	}
	if r.Avg != nil {
		out["_avg"] = r.Avg
	}
	if r.Sum != nil {
		out["_sum"] = r.Sum
	}
	if r.Min != nil {
		out["_min"] = r.Min
	}
	if r.Max != nil {
		out["_max"] = r.Max
	}
	return json.Marshal(out)
}

func isTrue(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("true"))
}
