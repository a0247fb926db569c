package adapters

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/toyz/bindplan/pkg/bindplan"
)

const maxMultipartMemory = 32 << 20

// GinRequest implements bindplan.Request for Gin
type GinRequest struct {
	context *gin.Context
}

// NewGinRequest wraps a Gin context
func NewGinRequest(c *gin.Context) *GinRequest {
	return &GinRequest{context: c}
}

// Context returns the request context
func (gr *GinRequest) Context() context.Context {
	return gr.context.Request.Context()
}

// Param returns a route value
func (gr *GinRequest) Param(name string) (string, bool) {
	return gr.context.Params.Get(name)
}

// Query returns every value of a query key
func (gr *GinRequest) Query(key string) []string {
	return gr.context.QueryArray(key)
}

// Header returns every value of a header
func (gr *GinRequest) Header(key string) []string {
	return gr.context.Request.Header.Values(key)
}

// Body returns the request body
func (gr *GinRequest) Body() io.Reader {
	return gr.context.Request.Body
}

// Form returns the parsed form values
func (gr *GinRequest) Form() (url.Values, error) {
	req := gr.context.Request
	if err := req.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return req.PostForm, nil
}

// Files returns the uploaded files under key
func (gr *GinRequest) Files(key string) ([]*multipart.FileHeader, error) {
	form, err := gr.context.MultipartForm()
	if err != nil {
		return nil, err
	}
	return form.File[key], nil
}

// Native returns the Gin context
func (gr *GinRequest) Native() any {
	return gr.context
}

// GinHandler binds plan for every request and passes the arguments to call.
// Binding failures are answered with a problem response.
func GinHandler(b *bindplan.Binder, plan bindplan.Plan, call func(c *gin.Context, args []any)) gin.HandlerFunc {
	return func(c *gin.Context) {
		args, err := b.Bind(NewGinRequest(c), plan)
		if err != nil {
			p := bindplan.ProblemFor(err)
			c.AbortWithStatusJSON(p.Status, p)
			return
		}
		call(c, args)
	}
}
