package classify

import (
	"fmt"
	"strings"

	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/models"
)

// rule inspects a parameter and claims it when it applies
type rule func(p *pass, decl models.ParameterDeclaration) (models.ClassifiedParameter, bool)

// rules run in priority order; the first match wins and the last always matches
var rules = []rule{
	explicitRule,
	frameworkRule,
	implicitRouteRule,
	implicitQueryRule,
	customParserRule,
	serviceRule,
}

func keyOr(key, name string) string {
	if key != "" {
		return key
	}
	return name
}

// explicitRule honours a binding annotation, or the expand marker on the parameter's type
func explicitRule(p *pass, decl models.ParameterDeclaration) (models.ClassifiedParameter, bool) {
	if decl.Binding == nil {
		if decl.Type.ExpandMarked {
			return models.ClassifiedParameter{Source: models.SourceExpand}, true
		}
		return models.ClassifiedParameter{}, false
	}

	b := decl.Binding
	cp := models.ClassifiedParameter{Source: b.Source}

	switch b.Source {
	case models.SourceRoute, models.SourceQuery, models.SourceHeader:
		cp.Key = keyOr(b.Key, decl.Name)
		cp.Parser = decl.Type.ParseContract
	case models.SourceForm:
		cp.Key = keyOr(b.Key, decl.Name)
		switch decl.Type.Special {
		case models.SpecialFormFile:
			cp.Source = models.SourceFormFile
		case models.SpecialFormFiles:
			cp.Source = models.SourceFormFiles
		case models.SpecialFormCollection:
			cp.Key = ""
		}
	case models.SourceKeyedService:
		cp.Key = keyOr(b.Key, decl.Name)
	case models.SourceService, models.SourceBody, models.SourceExpand:
		cp.Key = b.Key
	}
	return cp, true
}

// frameworkRule binds recognized runtime types regardless of name
func frameworkRule(_ *pass, decl models.ParameterDeclaration) (models.ClassifiedParameter, bool) {
	switch decl.Type.Special {
	case models.SpecialExecutionContext:
		return models.ClassifiedParameter{Source: models.SourceContext}, true
	case models.SpecialCancellation:
		return models.ClassifiedParameter{Source: models.SourceCancellation}, true
	case models.SpecialByteStream:
		return models.ClassifiedParameter{Source: models.SourceByteStream}, true
	case models.SpecialFormCollection:
		return models.ClassifiedParameter{Source: models.SourceForm}, true
	case models.SpecialFormFile:
		return models.ClassifiedParameter{Source: models.SourceFormFile, Key: decl.Name}, true
	case models.SpecialFormFiles:
		return models.ClassifiedParameter{Source: models.SourceFormFiles, Key: decl.Name}, true
	}
	return models.ClassifiedParameter{}, false
}

// customParseable reports whether the type relies on a user TryParse function
func customParseable(t models.TypeDescriptor) bool {
	return t.Kind == models.KindComplex && t.HasParseContract() && !t.WellKnown
}

// implicitRouteRule binds parameters named after a route segment.
// User-parseable types are left to customParserRule.
func implicitRouteRule(p *pass, decl models.ParameterDeclaration) (models.ClassifiedParameter, bool) {
	part, ok := p.tmpl.Lookup(decl.Name)
	if !ok || customParseable(decl.Type) {
		return models.ClassifiedParameter{}, false
	}
	return models.ClassifiedParameter{
		Source: models.SourceRoute,
		Key:    part.Value,
		Parser: decl.Type.ParseContract,
	}, true
}

// implicitQueryRule binds primitives, primitive collections and well-known values to the query string
func implicitQueryRule(_ *pass, decl models.ParameterDeclaration) (models.ClassifiedParameter, bool) {
	t := decl.Type
	if !t.IsPrimitive() && !t.IsPrimitiveCollection() && !t.WellKnown {
		return models.ClassifiedParameter{}, false
	}
	return models.ClassifiedParameter{
		Source: models.SourceQuery,
		Key:    decl.Name,
		Parser: t.ParseContract,
	}, true
}

// customParserRule binds complex types exposing a TryParse function
func customParserRule(p *pass, decl models.ParameterDeclaration) (models.ClassifiedParameter, bool) {
	if !customParseable(decl.Type) {
		return models.ClassifiedParameter{}, false
	}
	cp := models.ClassifiedParameter{
		Source: models.SourceCustomParsed,
		Origin: models.SourceQuery,
		Key:    decl.Name,
		Parser: decl.Type.ParseContract,
	}
	if part, ok := p.tmpl.Lookup(decl.Name); ok {
		cp.Origin = models.SourceRoute
		cp.Key = part.Value
	}
	return cp, true
}

// serviceRule resolves anything else from the service registry at request time
func serviceRule(_ *pass, _ models.ParameterDeclaration) (models.ClassifiedParameter, bool) {
	return models.ClassifiedParameter{Source: models.SourceService}, true
}

// checkSource enforces the type constraints of the chosen source
func (p *pass) checkSource(decl models.ParameterDeclaration, cp models.ClassifiedParameter, subject string) {
	t := decl.Type

	switch cp.Source {
	case models.SourceRoute:
		if t.IsPrimitive() || t.WellKnown || t.HasParseContract() {
			return
		}
		p.report(diagnostics.InvalidRouteParameterType, subject,
			"parameter '%s' of type '%s' cannot bind from route segment '%s': expected a primitive, a well-known value type or a type with %s",
			subject, t.Name, cp.Key, contractHint(t))
	case models.SourceQuery:
		if textual(t) {
			return
		}
		p.report(diagnostics.InvalidQueryParameterType, subject,
			"parameter '%s' of type '%s' cannot bind from query key '%s': expected a primitive, a collection of primitives or a type with %s",
			subject, t.Name, cp.Key, contractHint(t))
	case models.SourceHeader:
		if textual(t) {
			return
		}
		p.report(diagnostics.InvalidHeaderParameterType, subject,
			"parameter '%s' of type '%s' cannot bind from header '%s': expected a string, a primitive, a collection of primitives or a type with %s",
			subject, t.Name, cp.Key, contractHint(t))
	}
}

// textual reports whether a value of type t can be produced from query or header text
func textual(t models.TypeDescriptor) bool {
	return t.IsPrimitive() || t.IsPrimitiveCollection() || t.HasParseContract()
}

func contractHint(t models.TypeDescriptor) string {
	return fmt.Sprintf("a TryParse%s(string, *%s) bool function", baseName(t.Name), baseName(t.Name))
}

// baseName strips collection, pointer and package qualifiers from a type name
func baseName(name string) string {
	name = strings.TrimLeft(name, "[]*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func joinQuoted(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
