package bindplan

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/toyz/bindplan/pkg/outcome"
)

// ErrInvalidPlan is returned when binding a plan the analyser rejected
var ErrInvalidPlan = errors.New("binding plan is invalid")

// BindingError reports a request value that could not be bound. It maps to a 400 response.
type BindingError struct {
	Parameter string
	Source    string
	Key       string
	Err       error
}

func (e *BindingError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cannot bind parameter '%s' from %s '%s': %v", e.Parameter, strings.ToLower(e.Source), e.Key, e.Err)
	}
	return fmt.Sprintf("cannot bind parameter '%s' from %s: %v", e.Parameter, strings.ToLower(e.Source), e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements the status contract used by outcome.StatusOf
func (e *BindingError) HTTPStatus() int {
	return http.StatusBadRequest
}

// Shape returns the response shape of binding failures
func (e *BindingError) Shape() string {
	return outcome.ShapeBinding
}

var errMissing = errors.New("value is required")

// ParseFunc adapts a user TryParse function: it reports false when text is not valid
type ParseFunc func(text string) (any, bool)

// BuildFunc calls the constructor of an expanded parameter with its bound arguments
type BuildFunc func(args []any) (any, error)

// ServiceResolver supplies Service and KeyedService parameters
type ServiceResolver interface {
	Resolve(typeName, key string) (any, error)
}

// ServiceFunc adapts a function to ServiceResolver
type ServiceFunc func(typeName, key string) (any, error)

// Resolve implements ServiceResolver
func (f ServiceFunc) Resolve(typeName, key string) (any, error) {
	return f(typeName, key)
}

// BodyDecoder decodes Body parameters from the request
type BodyDecoder interface {
	Decode(req Request, p Parameter) (any, error)
}

// BodyDecoderFunc adapts a function to BodyDecoder
type BodyDecoderFunc func(req Request, p Parameter) (any, error)

// Decode implements BodyDecoder
func (f BodyDecoderFunc) Decode(req Request, p Parameter) (any, error) {
	return f(req, p)
}

// Binder resolves plan parameters against requests. Configure it once, then share it.
type Binder struct {
	parsers  map[string]ParseFunc
	builders map[string]BuildFunc
	services ServiceResolver
	decoder  BodyDecoder
}

// Option configures a Binder
type Option func(*Binder)

// WithParser registers the adapter for a TryParse function, by the function's name
func WithParser(name string, fn ParseFunc) Option {
	return func(b *Binder) { b.parsers[name] = fn }
}

// WithBuilder registers the constructor of an expanded type, by the constructor's name
func WithBuilder(name string, fn BuildFunc) Option {
	return func(b *Binder) { b.builders[name] = fn }
}

// WithServices sets the service resolver
func WithServices(r ServiceResolver) Option {
	return func(b *Binder) { b.services = r }
}

// WithBodyDecoder sets the body decoder
func WithBodyDecoder(d BodyDecoder) Option {
	return func(b *Binder) { b.decoder = d }
}

// NewBinder creates a binder
func NewBinder(opts ...Option) *Binder {
	b := &Binder{
		parsers:  make(map[string]ParseFunc),
		builders: make(map[string]BuildFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind resolves every parameter of plan, in order
func (b *Binder) Bind(req Request, plan Plan) ([]any, error) {
	if !plan.Valid {
		return nil, ErrInvalidPlan
	}
	return b.bindAll(req, plan.Parameters)
}

func (b *Binder) bindAll(req Request, params []Parameter) ([]any, error) {
	args := make([]any, 0, len(params))
	for _, p := range params {
		v, err := b.bind(req, p)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (b *Binder) bind(req Request, p Parameter) (any, error) {
	switch p.Source {
	case SourceRoute, SourceQuery, SourceHeader, SourceCustomParsed:
		return b.bindText(req, p)
	case SourceContext:
		return req.Native(), nil
	case SourceCancellation:
		return req.Context(), nil
	case SourceByteStream:
		return req.Body(), nil
	case SourceForm:
		return b.bindForm(req, p)
	case SourceFormFile, SourceFormFiles:
		return b.bindFiles(req, p)
	case SourceBody:
		if b.decoder == nil {
			return nil, fmt.Errorf("parameter '%s': no body decoder configured", p.Name)
		}
		v, err := b.decoder.Decode(req, p)
		if err != nil {
			return nil, &BindingError{Parameter: p.Name, Source: p.Source, Err: err}
		}
		return v, nil
	case SourceService, SourceKeyedService:
		if b.services == nil {
			return nil, fmt.Errorf("parameter '%s': no service resolver configured", p.Name)
		}
		return b.services.Resolve(p.Type, p.Key)
	case SourceExpand:
		return b.bindExpand(req, p)
	}
	return nil, fmt.Errorf("parameter '%s': unknown binding source '%s'", p.Name, p.Source)
}

// raw reads the request text for a Route, Query or Header parameter
func raw(req Request, source, key string) []string {
	switch source {
	case SourceRoute:
		if v, ok := req.Param(key); ok {
			return []string{v}
		}
		return nil
	case SourceHeader:
		return req.Header(key)
	default:
		return req.Query(key)
	}
}

func (b *Binder) bindText(req Request, p Parameter) (any, error) {
	origin := p.Origin
	if origin == "" {
		origin = p.Source
	}
	values := raw(req, origin, p.Key)

	typeName := strings.TrimPrefix(p.Type, "*")
	collection := strings.HasPrefix(typeName, "[]")
	if len(values) == 0 && !collection {
		if p.Nullable {
			return nil, nil
		}
		return nil, &BindingError{Parameter: p.Name, Source: origin, Key: p.Key, Err: errMissing}
	}

	parse, err := b.parserFor(p)
	if err != nil {
		return nil, err
	}

	v, err := ConvertValues(typeName, values, parse)
	if err != nil {
		return nil, &BindingError{Parameter: p.Name, Source: origin, Key: p.Key, Err: err}
	}
	if p.Nullable {
		return pointerTo(v), nil
	}
	return v, nil
}

// parserFor returns the text conversion for p, or nil for primitives
func (b *Binder) parserFor(p Parameter) (func(string) (any, error), error) {
	if p.Parser == "" {
		return nil, nil
	}
	if fn, ok := valueParsers[p.Parser]; ok {
		return fn, nil
	}
	fn, ok := b.parsers[p.Parser]
	if !ok {
		return nil, fmt.Errorf("parameter '%s': parser %s is not registered", p.Name, p.Parser)
	}
	return func(text string) (any, error) {
		v, ok := fn(text)
		if !ok {
			return nil, fmt.Errorf("'%s' is not a valid %s", text, strings.TrimLeft(p.Type, "[]*"))
		}
		return v, nil
	}, nil
}

func (b *Binder) bindForm(req Request, p Parameter) (any, error) {
	form, err := req.Form()
	if err != nil {
		return nil, &BindingError{Parameter: p.Name, Source: p.Source, Err: err}
	}
	if p.Key == "" {
		return form, nil
	}
	values, ok := form[p.Key]
	if !ok && !strings.HasPrefix(p.Type, "[]") {
		if p.Nullable {
			return nil, nil
		}
		return nil, &BindingError{Parameter: p.Name, Source: p.Source, Key: p.Key, Err: errMissing}
	}
	v, err := ConvertValues(strings.TrimPrefix(p.Type, "*"), values, nil)
	if err != nil {
		return nil, &BindingError{Parameter: p.Name, Source: p.Source, Key: p.Key, Err: err}
	}
	if p.Nullable {
		return pointerTo(v), nil
	}
	return v, nil
}

func (b *Binder) bindFiles(req Request, p Parameter) (any, error) {
	files, err := req.Files(p.Key)
	if err != nil {
		return nil, &BindingError{Parameter: p.Name, Source: p.Source, Key: p.Key, Err: err}
	}
	if p.Source == SourceFormFiles {
		return files, nil
	}
	if len(files) == 0 {
		if p.Nullable {
			return nil, nil
		}
		return nil, &BindingError{Parameter: p.Name, Source: p.Source, Key: p.Key, Err: errMissing}
	}
	return files[0], nil
}

func (b *Binder) bindExpand(req Request, p Parameter) (any, error) {
	build, ok := b.builders[p.Builder]
	if !ok {
		return nil, fmt.Errorf("parameter '%s': constructor %s is not registered", p.Name, p.Builder)
	}
	args, err := b.bindAll(req, p.Expanded)
	if err != nil {
		return nil, err
	}
	return build(args)
}
