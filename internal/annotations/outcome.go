package annotations

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/toyz/bindplan/pkg/outcome"
)

// OutcomeDirective is the decoded form of //bindplan::outcome
type OutcomeDirective struct {
	Kind   outcome.Kind
	IsKind bool // written as a kind name rather than a status code
	Status int
	Label  string
}

// DecodeOutcome interprets a parsed outcome annotation.
// "NotFound" names a kind; "404" or "404 NotFound" or "418 \"teapot\"" declare a status.
func DecodeOutcome(a *ParsedAnnotation) (OutcomeDirective, error) {
	if a.Type != OutcomeAnnotation {
		return OutcomeDirective{}, fmt.Errorf("expected an outcome annotation, got %s", a.Type)
	}

	status := a.Arg(0)
	label := a.Arg(1)

	if kind, ok := outcome.ParseKind(status); ok {
		if label == "" {
			label = kind.String()
		}
		return OutcomeDirective{Kind: kind, IsKind: true, Status: kind.Status(), Label: label}, nil
	}

	code, err := strconv.Atoi(status)
	if err != nil || code < 100 || code > 599 {
		return OutcomeDirective{}, fmt.Errorf("invalid outcome status '%s'", status)
	}
	if label == "" {
		label = http.StatusText(code)
	}
	return OutcomeDirective{Kind: outcome.KindCustom, Status: code, Label: label}, nil
}
