package adapters

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/toyz/bindplan/pkg/bindplan"
)

// FiberRequest implements bindplan.Request for Fiber v2
type FiberRequest struct {
	ctx *fiber.Ctx
}

// NewFiberRequest wraps a Fiber context
func NewFiberRequest(c *fiber.Ctx) *FiberRequest {
	return &FiberRequest{ctx: c}
}

// Context returns the user context
func (fr *FiberRequest) Context() context.Context {
	return fr.ctx.UserContext()
}

// Param returns a route value
func (fr *FiberRequest) Param(name string) (string, bool) {
	for _, n := range fr.ctx.Route().Params {
		if n == name {
			return fr.ctx.Params(name), true
		}
	}
	return "", false
}

// Query returns every value of a query key
func (fr *FiberRequest) Query(key string) []string {
	return toStrings(fr.ctx.Context().QueryArgs().PeekMulti(key))
}

// Header returns every value of a header
func (fr *FiberRequest) Header(key string) []string {
	return toStrings(fr.ctx.Request().Header.PeekAll(key))
}

// Body returns the request body
func (fr *FiberRequest) Body() io.Reader {
	return bytes.NewReader(fr.ctx.Body())
}

// Form returns the parsed form values
func (fr *FiberRequest) Form() (url.Values, error) {
	values := url.Values{}
	if strings.HasPrefix(fr.ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := fr.ctx.MultipartForm()
		if err != nil {
			return nil, err
		}
		for k, v := range form.Value {
			values[k] = v
		}
		return values, nil
	}
	fr.ctx.Request().PostArgs().VisitAll(func(k, v []byte) {
		values.Add(string(k), string(v))
	})
	return values, nil
}

// Files returns the uploaded files under key
func (fr *FiberRequest) Files(key string) ([]*multipart.FileHeader, error) {
	form, err := fr.ctx.MultipartForm()
	if err != nil {
		return nil, err
	}
	return form.File[key], nil
}

// Native returns the Fiber context
func (fr *FiberRequest) Native() any {
	return fr.ctx
}

func toStrings(raw [][]byte) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, len(raw))
	for i, b := range raw {
		out[i] = string(b)
	}
	return out
}

// FiberHandler binds plan for every request and passes the arguments to call.
// Binding failures are answered with a problem response.
func FiberHandler(b *bindplan.Binder, plan bindplan.Plan, call func(c *fiber.Ctx, args []any) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		args, err := b.Bind(NewFiberRequest(c), plan)
		if err != nil {
			p := bindplan.ProblemFor(err)
			return c.Status(p.Status).JSON(p)
		}
		return call(c, args)
	}
}
