// Package union decides whether a handler's responses fit a closed union.
package union

import (
	"net/http"
	"sort"
	"strings"

	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/pkg/outcome"
)

// DefaultMaxArity is the largest union emitted as a closed sum type
const DefaultMaxArity = 6

// ShapeNoContent is the success shape of handlers without a body
const ShapeNoContent = "NoContent"

// Input is everything known about one handler's responses
type Input struct {
	Verb            string
	SuccessType     string
	SuccessKind     models.SuccessKind
	Plan            models.BindingPlan
	Outcomes        models.OutcomeSet
	Explicit        []models.OutcomeAnnotation
	MiddlewareCodes []int
}

// Builder builds response unions
type Builder struct {
	MaxArity int
}

// NewBuilder creates a builder; maxArity <= 0 selects DefaultMaxArity
func NewBuilder(maxArity int) *Builder {
	if maxArity <= 0 {
		maxArity = DefaultMaxArity
	}
	return &Builder{MaxArity: maxArity}
}

type entryKey struct {
	status int
	shape  string
}

type entrySet struct {
	entries []models.UnionEntry
	seen    map[entryKey]bool
}

// add keeps the first entry for each (status, shape) pair
func (s *entrySet) add(status int, shape string, kind models.EntryKind) {
	key := entryKey{status, shape}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.entries = append(s.entries, models.UnionEntry{Status: status, Shape: shape, Kind: kind})
}

// Build computes the union for one handler
func (b *Builder) Build(in Input) models.UnionResult {
	set := &entrySet{seen: make(map[entryKey]bool)}

	status, shape := SuccessEntry(in.Verb, in.SuccessType, in.SuccessKind)
	set.add(status, shape, models.EntrySuccess)

	if in.Plan.HasRequestBound() {
		set.add(http.StatusBadRequest, outcome.ShapeBinding, models.EntryBindingFailure)
	}
	set.add(http.StatusInternalServerError, outcome.ShapeProblem, models.EntrySafetyNet)

	for _, kind := range in.Outcomes.Kinds {
		set.add(kind.Status(), kind.Shape(), models.EntryOutcome)
	}
	for _, declared := range in.Outcomes.Declared {
		set.add(declared.Status, outcome.ShapeForStatus(declared.Status), models.EntryOutcome)
	}
	for _, explicit := range in.Explicit {
		set.add(explicit.Status, outcome.ShapeForStatus(explicit.Status), models.EntryExplicit)
	}
	for _, code := range in.MiddlewareCodes {
		set.add(code, outcome.ShapeForStatus(code), models.EntryMiddleware)
	}

	entries := set.entries
	sort.SliceStable(entries, func(i, j int) bool {
		a, c := entries[i], entries[j]
		if a.Status != c.Status {
			return a.Status < c.Status
		}
		if a.Kind != c.Kind {
			return a.Kind < c.Kind
		}
		return a.Shape < c.Shape
	})

	if len(entries) <= b.maxArity() && !in.Outcomes.ForcesFallback() {
		return models.Bounded(entries)
	}
	return models.Fallback(statusCodes(entries, in.Outcomes.Custom))
}

func (b *Builder) maxArity() int {
	if b.MaxArity <= 0 {
		return DefaultMaxArity
	}
	return b.MaxArity
}

// SuccessEntry returns the status and shape of a handler's success response
func SuccessEntry(verb, successType string, kind models.SuccessKind) (int, string) {
	switch {
	case kind == models.SuccessNoContent || successType == "":
		return http.StatusNoContent, ShapeNoContent
	case kind == models.SuccessCreated:
		return http.StatusCreated, successType
	case strings.EqualFold(verb, http.MethodPost):
		return http.StatusCreated, successType
	default:
		return http.StatusOK, successType
	}
}

func statusCodes(entries []models.UnionEntry, custom []models.CustomOutcome) []int {
	seen := make(map[int]bool)
	var codes []int
	add := func(code int) {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	for _, e := range entries {
		add(e.Status)
	}
	for _, c := range custom {
		add(c.Status)
	}
	sort.Ints(codes)
	return codes
}
