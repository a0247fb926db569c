package bindplan

import (
	"context"
	"io"
	"mime/multipart"
	"net/url"
)

// Request is a framework-agnostic view of an incoming request
type Request interface {
	// Context returns the request's cancellation context
	Context() context.Context

	// Param returns a route value and whether the route declared it
	Param(name string) (string, bool)

	// Query returns every value of a query key
	Query(key string) []string

	// Header returns every value of a request header
	Header(key string) []string

	// Body returns the raw request body
	Body() io.Reader

	// Form returns the parsed url-encoded or multipart form values
	Form() (url.Values, error)

	// Files returns the uploaded files under a multipart form key
	Files(key string) ([]*multipart.FileHeader, error)

	// Native returns the framework's own request context
	Native() any
}
