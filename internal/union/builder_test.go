package union

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/pkg/outcome"
)

var routeBound = models.BindingPlan{
	Valid: true,
	Parameters: []models.ClassifiedParameter{
		{Name: "id", Type: "int", Source: models.SourceRoute, Key: "id", Origin: models.SourceRoute},
	},
}

var serviceOnly = models.BindingPlan{
	Valid: true,
	Parameters: []models.ClassifiedParameter{
		{Name: "repo", Type: "Repo", Source: models.SourceService, Origin: models.SourceService},
	},
}

func kinds(ks ...outcome.Kind) models.OutcomeSet {
	var set models.OutcomeSet
	for _, k := range ks {
		set.AddKind(k)
	}
	return set
}

func TestBuild(t *testing.T) {
	testCases := []struct {
		name      string
		input     Input
		maxArity  int
		wantMode  models.UnionMode
		wantEntry []models.UnionEntry
		wantCodes []int
	}{
		{
			name: "validation and not found without bindable parameters",
			input: Input{
				Verb:        "GET",
				SuccessType: "Todo",
				Plan:        serviceOnly,
				Outcomes:    kinds(outcome.KindNotFound, outcome.KindValidation),
			},
			wantMode: models.UnionBounded,
			wantEntry: []models.UnionEntry{
				{Status: 200, Shape: "Todo", Kind: models.EntrySuccess},
				{Status: 400, Shape: "ValidationProblem", Kind: models.EntryOutcome},
				{Status: 404, Shape: "NotFoundProblem", Kind: models.EntryOutcome},
				{Status: 500, Shape: "Problem", Kind: models.EntrySafetyNet},
			},
		},
		{
			name: "validation and binding failure keep separate 400 entries",
			input: Input{
				Verb:        "GET",
				SuccessType: "Todo",
				Plan:        routeBound,
				Outcomes:    kinds(outcome.KindNotFound, outcome.KindValidation),
			},
			wantMode: models.UnionBounded,
			wantEntry: []models.UnionEntry{
				{Status: 200, Shape: "Todo", Kind: models.EntrySuccess},
				{Status: 400, Shape: "BindingProblem", Kind: models.EntryBindingFailure},
				{Status: 400, Shape: "ValidationProblem", Kind: models.EntryOutcome},
				{Status: 404, Shape: "NotFoundProblem", Kind: models.EntryOutcome},
				{Status: 500, Shape: "Problem", Kind: models.EntrySafetyNet},
			},
		},
		{
			name: "failure and unexpected merge into the safety net",
			input: Input{
				Verb:        "DELETE",
				SuccessKind: models.SuccessNoContent,
				Outcomes:    kinds(outcome.KindFailure, outcome.KindUnexpected),
			},
			wantMode: models.UnionBounded,
			wantEntry: []models.UnionEntry{
				{Status: 204, Shape: "NoContent", Kind: models.EntrySuccess},
				{Status: 500, Shape: "Problem", Kind: models.EntrySafetyNet},
			},
		},
		{
			name: "post payload is created",
			input: Input{
				Verb:        "POST",
				SuccessType: "Todo",
				Explicit:    []models.OutcomeAnnotation{{Status: 409, Label: "Conflict"}},
			},
			wantMode: models.UnionBounded,
			wantEntry: []models.UnionEntry{
				{Status: 201, Shape: "Todo", Kind: models.EntrySuccess},
				{Status: 409, Shape: "ConflictProblem", Kind: models.EntryExplicit},
				{Status: 500, Shape: "Problem", Kind: models.EntrySafetyNet},
			},
		},
		{
			name: "middleware codes merge with discovered kinds",
			input: Input{
				Verb:            "PUT",
				SuccessType:     "Todo",
				SuccessKind:     models.SuccessCreated,
				Outcomes:        kinds(outcome.KindUnauthorized),
				MiddlewareCodes: []int{401, 403, 429},
			},
			wantMode: models.UnionBounded,
			wantEntry: []models.UnionEntry{
				{Status: 201, Shape: "Todo", Kind: models.EntrySuccess},
				{Status: 401, Shape: "UnauthorizedProblem", Kind: models.EntryOutcome},
				{Status: 403, Shape: "ForbiddenProblem", Kind: models.EntryMiddleware},
				{Status: 429, Shape: "Problem", Kind: models.EntryMiddleware},
				{Status: 500, Shape: "Problem", Kind: models.EntrySafetyNet},
			},
		},
		{
			name: "custom outcome forces fallback regardless of count",
			input: Input{
				Verb:        "GET",
				SuccessType: "Todo",
				Outcomes: models.OutcomeSet{
					Custom: []models.CustomOutcome{{Status: 999, Label: "X"}},
				},
			},
			wantMode:  models.UnionFallback,
			wantCodes: []int{200, 500, 999},
		},
		{
			name: "undocumented call forces fallback",
			input: Input{
				Verb:        "GET",
				SuccessType: "Todo",
				Plan:        routeBound,
				Outcomes:    models.OutcomeSet{Undocumented: true},
			},
			wantMode:  models.UnionFallback,
			wantCodes: []int{200, 400, 500},
		},
		{
			name: "unknown factory forces fallback",
			input: Input{
				Verb:        "GET",
				SuccessType: "Todo",
				Outcomes:    models.OutcomeSet{UnknownFactory: true},
			},
			wantMode:  models.UnionFallback,
			wantCodes: []int{200, 500},
		},
		{
			name: "too many entries",
			input: Input{
				Verb:        "GET",
				SuccessType: "Todo",
				Plan:        routeBound,
				Outcomes: kinds(outcome.KindValidation, outcome.KindNotFound, outcome.KindConflict,
					outcome.KindUnauthorized, outcome.KindForbidden),
			},
			wantMode:  models.UnionFallback,
			wantCodes: []int{200, 400, 401, 403, 404, 409, 500},
		},
		{
			name:     "smaller arity",
			maxArity: 2,
			input: Input{
				Verb:        "GET",
				SuccessType: "Todo",
				Outcomes:    kinds(outcome.KindNotFound),
			},
			wantMode:  models.UnionFallback,
			wantCodes: []int{200, 404, 500},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := NewBuilder(tc.maxArity).Build(tc.input)

			assert.Equal(t, tc.wantMode, result.Mode)
			assert.Equal(t, tc.wantEntry, result.Entries)
			assert.Equal(t, tc.wantCodes, result.StatusCodes)
		})
	}
}

func TestBuild_BoundedIffWithinArity(t *testing.T) {
	all := []outcome.Kind{
		outcome.KindValidation, outcome.KindNotFound, outcome.KindConflict,
		outcome.KindUnauthorized, outcome.KindForbidden, outcome.KindFailure,
	}

	for n := 0; n <= len(all); n++ {
		for _, plan := range []models.BindingPlan{serviceOnly, routeBound} {
			for _, custom := range []bool{false, true} {
				in := Input{Verb: "GET", SuccessType: "Todo", Plan: plan, Outcomes: kinds(all[:n]...)}
				if custom {
					in.Outcomes.AddCustom(models.CustomOutcome{Status: 418, Label: "teapot"})
				}

				b := NewBuilder(0)
				result := b.Build(in)

				bounded := result.IsBounded()
				count := len(result.Entries)
				if !bounded {
					count = len(result.StatusCodes)
				}

				if custom {
					assert.False(t, bounded)
					continue
				}
				entries := countEntries(in)
				assert.Equal(t, entries <= DefaultMaxArity, bounded, "n=%d entries=%d", n, entries)
				if bounded {
					assert.Equal(t, entries, count)
				}
			}
		}
	}
}

// countEntries counts distinct (status, shape) pairs independently of Build
func countEntries(in Input) int {
	pairs := map[[2]any]bool{{200, "Todo"}: true, {500, "Problem"}: true}
	if in.Plan.HasRequestBound() {
		pairs[[2]any{400, "BindingProblem"}] = true
	}
	for _, k := range in.Outcomes.Kinds {
		pairs[[2]any{k.Status(), k.Shape()}] = true
	}
	return len(pairs)
}

func TestBuild_Idempotent(t *testing.T) {
	in := Input{
		Verb:            "POST",
		SuccessType:     "Todo",
		Plan:            routeBound,
		Outcomes:        kinds(outcome.KindConflict, outcome.KindValidation),
		MiddlewareCodes: []int{401, 403},
	}
	b := NewBuilder(0)
	assert.Equal(t, b.Build(in), b.Build(in))
}

func TestSuccessEntry(t *testing.T) {
	testCases := []struct {
		verb       string
		typ        string
		kind       models.SuccessKind
		wantStatus int
		wantShape  string
	}{
		{"GET", "Todo", models.SuccessPayload, 200, "Todo"},
		{"post", "Todo", models.SuccessPayload, 201, "Todo"},
		{"PUT", "Todo", models.SuccessCreated, 201, "Todo"},
		{"DELETE", "", models.SuccessPayload, 204, "NoContent"},
		{"POST", "Todo", models.SuccessNoContent, 204, "NoContent"},
	}
	for _, tc := range testCases {
		t.Run(tc.verb+" "+tc.kind.String(), func(t *testing.T) {
			status, shape := SuccessEntry(tc.verb, tc.typ, tc.kind)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantShape, shape)
		})
	}
}
