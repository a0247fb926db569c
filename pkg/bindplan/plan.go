// Package bindplan executes binding plans produced by the bindplan analyser at request time.
//
// A plan lists, for each handler parameter, where its value comes from. The Binder walks
// a plan against a Request view and returns the handler arguments in declaration order.
package bindplan

import (
	"encoding/json"
	"fmt"
	"io"
)

// Source names match the analyser's report output
const (
	SourceRoute        = "Route"
	SourceQuery        = "Query"
	SourceHeader       = "Header"
	SourceBody         = "Body"
	SourceForm         = "Form"
	SourceFormFile     = "FormFile"
	SourceFormFiles    = "FormFiles"
	SourceService      = "Service"
	SourceKeyedService = "KeyedService"
	SourceContext      = "Context"
	SourceCancellation = "Cancellation"
	SourceByteStream   = "ByteStream"
	SourceExpand       = "Expand"
	SourceCustomParsed = "CustomParsed"
)

// Parameter is one binding decision
type Parameter struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Source   string      `json:"source"`
	Key      string      `json:"key,omitempty"`
	Origin   string      `json:"origin"`
	Parser   string      `json:"parser,omitempty"`
	Nullable bool        `json:"nullable,omitempty"`
	Expanded []Parameter `json:"expanded,omitempty"`
	Builder  string      `json:"builder,omitempty"`
}

// Plan is the binding plan of one handler
type Plan struct {
	Valid      bool        `json:"valid"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// HandlerPlan pairs a handler identity with its plan, as written in a JSON report
type HandlerPlan struct {
	Handler string `json:"handler"`
	Verb    string `json:"verb"`
	Route   string `json:"route"`
	Plan    Plan   `json:"plan"`
}

// LoadPlans reads the handlers section of a JSON analysis report, keyed by handler identity
func LoadPlans(r io.Reader) (map[string]HandlerPlan, error) {
	var report struct {
		Handlers []HandlerPlan `json:"handlers"`
	}
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	plans := make(map[string]HandlerPlan, len(report.Handlers))
	for _, h := range report.Handlers {
		plans[h.Handler] = h
	}
	return plans, nil
}
