package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/internal/route"
)

func param(name string, t models.TypeDescriptor) models.ParameterDeclaration {
	return models.ParameterDeclaration{Name: name, Type: t}
}

func annotated(name string, t models.TypeDescriptor, source models.BindingSource, key string) models.ParameterDeclaration {
	p := param(name, t)
	p.Binding = &models.BindingAnnotation{Source: source, Key: key}
	return p
}

func special(name string, s models.SpecialType) models.TypeDescriptor {
	t := models.Complex(name, models.ShapeOther)
	t.Special = s
	return t
}

func parseable(name string) models.TypeDescriptor {
	t := models.Complex(name, models.ShapeStruct)
	t.ParseContract = "TryParse" + name
	return t
}

func wellKnown(name, fn string) models.TypeDescriptor {
	t := models.Complex(name, models.ShapeStruct)
	t.WellKnown = true
	t.ParseContract = fn
	return t
}

func expandable(name string, members ...models.ParameterDeclaration) models.TypeDescriptor {
	t := models.Complex(name, models.ShapeStruct)
	t.Constructor = &models.Constructor{Name: "New" + name, Parameters: members}
	return t
}

func classify(t *testing.T, routeText string, params ...models.ParameterDeclaration) (models.BindingPlan, diagnostics.Diagnostics) {
	t.Helper()
	tmpl, err := route.Parse(routeText)
	require.NoError(t, err)

	collector := diagnostics.NewCollector(nil)
	plan := New().Classify(models.HandlerDeclaration{Route: routeText, Parameters: params}, tmpl, collector)
	return plan, collector.Diagnostics
}

func TestClassify_RuleChain(t *testing.T) {
	testCases := []struct {
		name       string
		route      string
		param      models.ParameterDeclaration
		wantSource models.BindingSource
		wantOrigin models.BindingSource
		wantKey    string
		wantParser string
	}{
		{
			name:       "implicit route match",
			route:      "/items/{id}",
			param:      param("id", models.Primitive("int")),
			wantSource: models.SourceRoute,
			wantOrigin: models.SourceRoute,
			wantKey:    "id",
		},
		{
			name:       "route match is case-insensitive and keeps the template spelling",
			route:      "/users/{userID:int}",
			param:      param("userid", models.Primitive("int64")),
			wantSource: models.SourceRoute,
			wantOrigin: models.SourceRoute,
			wantKey:    "userID",
		},
		{
			name:       "well-known route value",
			route:      "/orders/{id}",
			param:      param("id", wellKnown("uuid.UUID", "ParseUUID")),
			wantSource: models.SourceRoute,
			wantOrigin: models.SourceRoute,
			wantKey:    "id",
			wantParser: "ParseUUID",
		},
		{
			name:       "implicit query primitive",
			route:      "/items",
			param:      param("page", models.Primitive("int")),
			wantSource: models.SourceQuery,
			wantOrigin: models.SourceQuery,
			wantKey:    "page",
		},
		{
			name:       "implicit query collection",
			route:      "/items",
			param:      param("tags", models.CollectionOf(models.Primitive("string"))),
			wantSource: models.SourceQuery,
			wantOrigin: models.SourceQuery,
			wantKey:    "tags",
		},
		{
			name:       "well-known value off the route binds to query",
			route:      "/events",
			param:      param("since", wellKnown("time.Time", "ParseTime")),
			wantSource: models.SourceQuery,
			wantOrigin: models.SourceQuery,
			wantKey:    "since",
			wantParser: "ParseTime",
		},
		{
			name:       "custom parser on route",
			route:      "/posts/{slug}",
			param:      param("slug", parseable("Slug")),
			wantSource: models.SourceCustomParsed,
			wantOrigin: models.SourceRoute,
			wantKey:    "slug",
			wantParser: "TryParseSlug",
		},
		{
			name:       "custom parser on query",
			route:      "/posts",
			param:      param("sort", parseable("SortOrder")),
			wantSource: models.SourceCustomParsed,
			wantOrigin: models.SourceQuery,
			wantKey:    "sort",
			wantParser: "TryParseSortOrder",
		},
		{
			name:       "complex type falls back to service",
			route:      "/items",
			param:      param("repo", models.Complex("ItemRepository", models.ShapeInterface)),
			wantSource: models.SourceService,
			wantOrigin: models.SourceService,
		},
		{
			name:       "execution context regardless of name",
			route:      "/items/{id}",
			param:      param("id", special("echo.Context", models.SpecialExecutionContext)),
			wantSource: models.SourceContext,
			wantOrigin: models.SourceContext,
		},
		{
			name:       "cancellation",
			route:      "/items",
			param:      param("ctx", special("context.Context", models.SpecialCancellation)),
			wantSource: models.SourceCancellation,
			wantOrigin: models.SourceCancellation,
		},
		{
			name:       "byte stream",
			route:      "/upload",
			param:      param("body", special("io.Reader", models.SpecialByteStream)),
			wantSource: models.SourceByteStream,
			wantOrigin: models.SourceByteStream,
		},
		{
			name:       "uploaded file",
			route:      "/upload",
			param:      param("avatar", special("*multipart.FileHeader", models.SpecialFormFile)),
			wantSource: models.SourceFormFile,
			wantOrigin: models.SourceFormFile,
			wantKey:    "avatar",
		},
		{
			name:       "explicit annotation beats route match",
			route:      "/items/{id}",
			param:      annotated("id", models.Primitive("string"), models.SourceHeader, "X-Item-ID"),
			wantSource: models.SourceHeader,
			wantOrigin: models.SourceHeader,
			wantKey:    "X-Item-ID",
		},
		{
			name:       "explicit query defaults key to name",
			route:      "/items",
			param:      annotated("limit", models.Primitive("int"), models.SourceQuery, ""),
			wantSource: models.SourceQuery,
			wantOrigin: models.SourceQuery,
			wantKey:    "limit",
		},
		{
			name:       "explicit body",
			route:      "/items",
			param:      annotated("req", models.Complex("CreateItem", models.ShapeStruct), models.SourceBody, ""),
			wantSource: models.SourceBody,
			wantOrigin: models.SourceBody,
		},
		{
			name:       "explicit keyed service",
			route:      "/items",
			param:      annotated("cache", models.Complex("Cache", models.ShapeInterface), models.SourceKeyedService, "hot"),
			wantSource: models.SourceKeyedService,
			wantOrigin: models.SourceKeyedService,
			wantKey:    "hot",
		},
		{
			name:       "explicit form on a file handle",
			route:      "/upload",
			param:      annotated("doc", special("*multipart.FileHeader", models.SpecialFormFile), models.SourceForm, "document"),
			wantSource: models.SourceFormFile,
			wantOrigin: models.SourceFormFile,
			wantKey:    "document",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, diags := classify(t, tc.route, tc.param)

			require.Empty(t, diags)
			require.True(t, plan.Valid)
			require.Len(t, plan.Parameters, 1)

			cp := plan.Parameters[0]
			assert.Equal(t, tc.param.Name, cp.Name)
			assert.Equal(t, tc.param.Type.Name, cp.Type)
			assert.Equal(t, tc.wantSource, cp.Source)
			assert.Equal(t, tc.wantOrigin, cp.Origin)
			assert.Equal(t, tc.wantKey, cp.Key)
			assert.Equal(t, tc.wantParser, cp.Parser)
		})
	}
}

func TestClassify_Validity(t *testing.T) {
	testCases := []struct {
		name     string
		route    string
		params   []models.ParameterDeclaration
		wantKind diagnostics.Kind
	}{
		{
			name:     "complex route parameter without parse contract",
			route:    "/items/{id}",
			params:   []models.ParameterDeclaration{param("id", models.Complex("ComplexFilter", models.ShapeStruct))},
			wantKind: diagnostics.InvalidRouteParameterType,
		},
		{
			name:     "collection on route",
			route:    "/items/{ids}",
			params:   []models.ParameterDeclaration{param("ids", models.CollectionOf(models.Primitive("int")))},
			wantKind: diagnostics.InvalidRouteParameterType,
		},
		{
			name:     "explicit query on a struct",
			route:    "/items",
			params:   []models.ParameterDeclaration{annotated("filter", models.Complex("Filter", models.ShapeStruct), models.SourceQuery, "")},
			wantKind: diagnostics.InvalidQueryParameterType,
		},
		{
			name:     "explicit header on a struct",
			route:    "/items",
			params:   []models.ParameterDeclaration{annotated("meta", models.Complex("Meta", models.ShapeStruct), models.SourceHeader, "X-Meta")},
			wantKind: diagnostics.InvalidHeaderParameterType,
		},
		{
			name:  "body and form together",
			route: "/upload",
			params: []models.ParameterDeclaration{
				annotated("a", models.Complex("Req", models.ShapeStruct), models.SourceBody, ""),
				annotated("f", special("*multipart.FileHeader", models.SpecialFormFile), models.SourceForm, ""),
			},
			wantKind: diagnostics.MultipleBodySources,
		},
		{
			name:  "two bodies",
			route: "/items",
			params: []models.ParameterDeclaration{
				annotated("a", models.Complex("A", models.ShapeStruct), models.SourceBody, ""),
				annotated("b", models.Complex("B", models.ShapeStruct), models.SourceBody, ""),
			},
			wantKind: diagnostics.MultipleBodySources,
		},
		{
			name:  "body and stream",
			route: "/items",
			params: []models.ParameterDeclaration{
				annotated("a", models.Complex("A", models.ShapeStruct), models.SourceBody, ""),
				param("raw", special("io.Reader", models.SpecialByteStream)),
			},
			wantKind: diagnostics.MultipleBodySources,
		},
		{
			name:     "expand without constructor",
			route:    "/items",
			params:   []models.ParameterDeclaration{annotated("opts", models.Complex("Options", models.ShapeStruct), models.SourceExpand, "")},
			wantKind: diagnostics.ExpandNoConstructor,
		},
		{
			name:     "expand of a non-struct",
			route:    "/items",
			params:   []models.ParameterDeclaration{annotated("opts", models.Complex("Options", models.ShapeInterface), models.SourceExpand, "")},
			wantKind: diagnostics.ExpandNoConstructor,
		},
		{
			name:  "nullable expand",
			route: "/items",
			params: []models.ParameterDeclaration{func() models.ParameterDeclaration {
				p := annotated("opts", expandable("Options"), models.SourceExpand, "")
				p.Nullable = true
				return p
			}()},
			wantKind: diagnostics.NullableExpandNotSupported,
		},
		{
			name:  "nested expand",
			route: "/items",
			params: []models.ParameterDeclaration{
				annotated("opts", expandable("Options",
					param("page", models.Primitive("int")),
					param("paging", func() models.TypeDescriptor {
						inner := expandable("Paging", param("size", models.Primitive("int")))
						inner.ExpandMarked = true
						return inner
					}()),
				), models.SourceExpand, ""),
			},
			wantKind: diagnostics.NestedExpandNotSupported,
		},
		{
			name:  "body inside an expanded parameter",
			route: "/items",
			params: []models.ParameterDeclaration{
				annotated("a", models.Complex("A", models.ShapeStruct), models.SourceBody, ""),
				annotated("opts", expandable("Options",
					param("upload", special("*multipart.FileHeader", models.SpecialFormFile)),
				), models.SourceExpand, ""),
			},
			wantKind: diagnostics.MultipleBodySources,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, diags := classify(t, tc.route, tc.params...)

			assert.True(t, diags.Has(tc.wantKind), "got %v", diags.Kinds())
			assert.False(t, plan.Valid)
			assert.Empty(t, plan.Parameters)
		})
	}
}

func TestClassify_ReportsEveryFailingParameter(t *testing.T) {
	plan, diags := classify(t, "/items/{id}",
		param("id", models.Complex("Filter", models.ShapeStruct)),
		annotated("q", models.Complex("Query", models.ShapeStruct), models.SourceQuery, ""),
		annotated("h", models.Complex("Meta", models.ShapeStruct), models.SourceHeader, ""),
	)

	assert.False(t, plan.Valid)
	assert.Equal(t, []diagnostics.Kind{
		diagnostics.InvalidRouteParameterType,
		diagnostics.InvalidQueryParameterType,
		diagnostics.InvalidHeaderParameterType,
	}, diags.Kinds())
	assert.Equal(t, "id", diags[0].Subject)
}

func TestClassify_Expand(t *testing.T) {
	opts := expandable("ListOptions",
		param("id", models.Primitive("int")),
		param("page", models.Primitive("int")),
		annotated("tenant", models.Primitive("string"), models.SourceHeader, "X-Tenant"),
		param("repo", models.Complex("Repo", models.ShapeInterface)),
	)

	plan, diags := classify(t, "/accounts/{id}/items",
		annotated("opts", opts, models.SourceExpand, ""),
	)

	require.Empty(t, diags)
	require.True(t, plan.Valid)
	require.Len(t, plan.Parameters, 1)

	cp := plan.Parameters[0]
	assert.Equal(t, models.SourceExpand, cp.Source)
	assert.Equal(t, "NewListOptions", cp.Builder)

	var sources []models.BindingSource
	for _, nested := range cp.Expanded {
		sources = append(sources, nested.Source)
	}
	assert.Equal(t, []models.BindingSource{
		models.SourceRoute,
		models.SourceQuery,
		models.SourceHeader,
		models.SourceService,
	}, sources)
	assert.True(t, plan.HasRequestBound())
}

func TestClassify_ExpandMarkedTypeExpandsImplicitly(t *testing.T) {
	paging := expandable("Paging", param("size", models.Primitive("int")))
	paging.ExpandMarked = true

	plan, diags := classify(t, "/items", param("paging", paging))

	require.Empty(t, diags)
	require.True(t, plan.Valid)
	assert.Equal(t, models.SourceExpand, plan.Parameters[0].Source)
	require.Len(t, plan.Parameters[0].Expanded, 1)
	assert.Equal(t, "paging.size", "paging."+plan.Parameters[0].Expanded[0].Name)
}

func TestClassify_NestedExpandSubject(t *testing.T) {
	inner := expandable("Paging", param("size", models.Primitive("int")))
	inner.ExpandMarked = true
	outer := expandable("Options", param("paging", inner))

	_, diags := classify(t, "/items", annotated("opts", outer, models.SourceExpand, ""))

	nested := diags.Filter(diagnostics.NestedExpandNotSupported)
	require.Len(t, nested, 1)
	assert.Equal(t, "opts.paging", nested[0].Subject)
}

func TestClassify_FormFamilySharesOneSurface(t *testing.T) {
	plan, diags := classify(t, "/upload",
		param("avatar", special("*multipart.FileHeader", models.SpecialFormFile)),
		param("attachments", special("[]*multipart.FileHeader", models.SpecialFormFiles)),
		param("fields", special("url.Values", models.SpecialFormCollection)),
	)

	require.Empty(t, diags)
	assert.True(t, plan.Valid)
}

func TestClassify_Idempotent(t *testing.T) {
	params := []models.ParameterDeclaration{
		param("id", models.Primitive("int")),
		param("tags", models.CollectionOf(models.Primitive("string"))),
		annotated("req", models.Complex("UpdateItem", models.ShapeStruct), models.SourceBody, ""),
		param("repo", models.Complex("Repo", models.ShapeInterface)),
	}

	first, _ := classify(t, "/items/{id}", params...)
	second, _ := classify(t, "/items/{id}", params...)

	assert.Equal(t, first, second)
}

func TestClassify_RouteRoundTrip(t *testing.T) {
	routes := []string{
		"/a/{id}",
		"/a/{ID}/b/{name:alpha}",
		"/files/{**path}",
		"/users/{userId:int}/posts/{postId?}",
	}

	for _, text := range routes {
		t.Run(text, func(t *testing.T) {
			tmpl, err := route.Parse(text)
			require.NoError(t, err)

			var params []models.ParameterDeclaration
			for _, name := range tmpl.Names() {
				params = append(params, param(name, models.Primitive("string")))
			}

			plan, diags := classify(t, text, params...)
			require.Empty(t, diags)
			require.True(t, plan.Valid)
			for _, cp := range plan.Parameters {
				assert.Equal(t, models.SourceRoute, cp.Source, cp.Name)
			}
		})
	}
}

func TestClassify_NilTemplate(t *testing.T) {
	collector := diagnostics.NewCollector(nil)
	plan := New().Classify(models.HandlerDeclaration{
		Parameters: []models.ParameterDeclaration{param("id", models.Primitive("int"))},
	}, nil, collector)

	require.True(t, plan.Valid)
	assert.Equal(t, models.SourceQuery, plan.Parameters[0].Source)
}
