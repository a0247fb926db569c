package registry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/toyz/bindplan/internal/utils"
)

// MiddlewareSpec describes the responses a middleware can short-circuit with
type MiddlewareSpec struct {
	Name        string
	Statuses    []int
	Description string
}

// MiddlewareRegistry maps middleware names to the status codes they induce
type MiddlewareRegistry interface {
	Register(spec MiddlewareSpec) error
	Get(name string) (MiddlewareSpec, bool)
	Validate(names []string) error
	Statuses(names []string) (codes []int, unknown []string)
}

// BuiltinMiddlewares are registered in every new registry
var BuiltinMiddlewares = []MiddlewareSpec{
	{
		Name:        "Auth",
		Statuses:    []int{http.StatusUnauthorized, http.StatusForbidden},
		Description: "Authorization requirement",
	},
	{
		Name:        "RateLimit",
		Statuses:    []int{http.StatusTooManyRequests},
		Description: "Rate-limit requirement",
	},
}

type middlewareRegistry struct {
	mu          sync.RWMutex
	middlewares map[string]MiddlewareSpec // keyed by lower-cased name
}

// NewMiddlewareRegistry creates a registry holding the builtin middlewares
func NewMiddlewareRegistry() MiddlewareRegistry {
	r := &middlewareRegistry{middlewares: make(map[string]MiddlewareSpec)}
	for _, spec := range BuiltinMiddlewares {
		r.middlewares[strings.ToLower(spec.Name)] = spec
	}
	return r
}

var statusValidator = utils.NewValidatorChain(
	utils.ValidateEach("statuses", utils.InRange("status", 100, 599)),
)

// Register adds a middleware. Registering a builtin name replaces the builtin.
func (r *middlewareRegistry) Register(spec MiddlewareSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return fmt.Errorf("middleware name cannot be empty")
	}
	if err := statusValidator.Validate(spec.Statuses); err != nil {
		return fmt.Errorf("middleware '%s': %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if existing, exists := r.middlewares[key]; exists && !isBuiltin(existing.Name) {
		return fmt.Errorf("middleware '%s' is already registered", name)
	}

	spec.Name = name
	r.middlewares[key] = spec
	return nil
}

func isBuiltin(name string) bool {
	for _, b := range BuiltinMiddlewares {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Get retrieves a middleware by name, case-insensitively
func (r *middlewareRegistry) Get(name string) (MiddlewareSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.middlewares[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}

// Validate checks that all middleware names exist in the registry
func (r *middlewareRegistry) Validate(names []string) error {
	_, unknown := r.Statuses(names)
	if len(unknown) > 0 {
		return fmt.Errorf("unknown middleware(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Statuses returns the sorted distinct status codes induced by names, plus any unknown names
func (r *middlewareRegistry) Statuses(names []string) ([]int, []string) {
	seen := make(map[int]bool)
	var codes []int
	var unknown []string

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		spec, ok := r.Get(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		for _, code := range spec.Statuses {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}

	sort.Ints(codes)
	return codes, unknown
}
