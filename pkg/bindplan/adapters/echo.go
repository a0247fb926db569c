package adapters

import (
	"context"
	"io"
	"mime/multipart"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/toyz/bindplan/pkg/bindplan"
)

// EchoRequest implements bindplan.Request for Echo v4
type EchoRequest struct {
	context echo.Context
}

// NewEchoRequest wraps an Echo context
func NewEchoRequest(c echo.Context) *EchoRequest {
	return &EchoRequest{context: c}
}

// Context returns the request context
func (er *EchoRequest) Context() context.Context {
	return er.context.Request().Context()
}

// Param returns a route value
func (er *EchoRequest) Param(name string) (string, bool) {
	for i, n := range er.context.ParamNames() {
		if n == name {
			return er.context.ParamValues()[i], true
		}
	}
	return "", false
}

// Query returns every value of a query key
func (er *EchoRequest) Query(key string) []string {
	return er.context.QueryParams()[key]
}

// Header returns every value of a header
func (er *EchoRequest) Header(key string) []string {
	return er.context.Request().Header.Values(key)
}

// Body returns the request body
func (er *EchoRequest) Body() io.Reader {
	return er.context.Request().Body
}

// Form returns the parsed form values
func (er *EchoRequest) Form() (url.Values, error) {
	return er.context.FormParams()
}

// Files returns the uploaded files under key
func (er *EchoRequest) Files(key string) ([]*multipart.FileHeader, error) {
	form, err := er.context.MultipartForm()
	if err != nil {
		return nil, err
	}
	return form.File[key], nil
}

// Native returns the Echo context
func (er *EchoRequest) Native() any {
	return er.context
}

// EchoHandler binds plan for every request and passes the arguments to call.
// Binding failures are answered with a problem response.
func EchoHandler(b *bindplan.Binder, plan bindplan.Plan, call func(c echo.Context, args []any) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		args, err := b.Bind(NewEchoRequest(c), plan)
		if err != nil {
			p := bindplan.ProblemFor(err)
			return c.JSON(p.Status, p)
		}
		return call(c, args)
	}
}
