package bindplan

import (
	"errors"
	"net/http"

	"github.com/toyz/bindplan/pkg/outcome"
)

// Problem is the response body written for binding and handler failures
type Problem struct {
	Status int               `json:"status"`
	Shape  string            `json:"shape"`
	Title  string            `json:"title"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ProblemFor maps an error to its response problem
func ProblemFor(err error) Problem {
	status := outcome.StatusOf(err)
	p := Problem{
		Status: status,
		Shape:  outcome.ShapeForStatus(status),
		Title:  http.StatusText(status),
	}

	var be *BindingError
	var oe *outcome.Error
	switch {
	case errors.As(err, &be):
		p.Shape = be.Shape()
		p.Detail = be.Error()
	case errors.As(err, &oe):
		p.Shape = oe.Kind.Shape()
		if oe.Label != "" {
			p.Title = oe.Label
		}
		p.Detail = oe.Message
		p.Fields = oe.Fields
	}
	return p
}
