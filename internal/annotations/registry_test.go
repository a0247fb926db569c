package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryHasBuiltins(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []AnnotationType{HandlerAnnotation, OutcomeAnnotation, ParamAnnotation, ExpandAnnotation}, r.ListTypes())
	for _, schema := range BuiltinSchemas {
		assert.True(t, r.IsRegistered(schema.Type))
		got, err := r.GetSchema(schema.Type)
		require.NoError(t, err)
		assert.NotEmpty(t, got.Examples)
	}
}

func TestBuiltinExamplesParse(t *testing.T) {
	p := NewParser(DefaultRegistry())
	for _, schema := range BuiltinSchemas {
		for _, example := range schema.Examples {
			t.Run(example, func(t *testing.T) {
				got, err := p.ParseAnnotation(example, SourceLocation{File: "example.go"})
				require.NoError(t, err)
				assert.Equal(t, schema.Type, got.Type)
			})
		}
	}
}

func TestRegistryRegister(t *testing.T) {
	testCases := []struct {
		name    string
		typ     AnnotationType
		schema  AnnotationSchema
		wantErr string
	}{
		{
			name:   "valid",
			typ:    ExpandAnnotation,
			schema: AnnotationSchema{Type: ExpandAnnotation},
		},
		{
			name:    "mismatched type",
			typ:     HandlerAnnotation,
			schema:  AnnotationSchema{Type: ExpandAnnotation},
			wantErr: "does not match",
		},
		{
			name: "required after optional",
			typ:  OutcomeAnnotation,
			schema: AnnotationSchema{
				Type: OutcomeAnnotation,
				Args: []ArgSpec{{Name: "a"}, {Name: "b", Required: true}},
			},
			wantErr: "follows an optional",
		},
		{
			name: "boolean with validator",
			typ:  HandlerAnnotation,
			schema: AnnotationSchema{
				Type:  HandlerAnnotation,
				Flags: map[string]FlagSpec{"Async": {Boolean: true, Validator: func(string) error { return nil }}},
			},
			wantErr: "cannot have a validator",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tc.typ, tc.schema)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.True(t, r.IsRegistered(tc.typ))
				assert.Error(t, r.Register(tc.typ, tc.schema), "duplicate registration must fail")
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestGetSchemaUnregistered(t *testing.T) {
	_, err := NewRegistry().GetSchema(HandlerAnnotation)
	assert.Error(t, err)
}

func TestAnnotationTypeRoundTrip(t *testing.T) {
	for _, typ := range []AnnotationType{HandlerAnnotation, OutcomeAnnotation, ParamAnnotation, ExpandAnnotation} {
		parsed, err := ParseAnnotationType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseAnnotationType("route")
	assert.Error(t, err)
	assert.Equal(t, "unknown", AnnotationType(99).String())
}
