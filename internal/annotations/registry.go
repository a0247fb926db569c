package annotations

import (
	"fmt"
	"sort"
	"sync"
)

// AnnotationRegistry manages directive schemas
type AnnotationRegistry interface {
	// Register a new directive type with its schema
	Register(annotationType AnnotationType, schema AnnotationSchema) error

	// GetSchema retrieves the schema for a directive type
	GetSchema(annotationType AnnotationType) (AnnotationSchema, error)

	// ListTypes returns all registered directive types
	ListTypes() []AnnotationType

	// IsRegistered checks if a directive type is registered
	IsRegistered(annotationType AnnotationType) bool
}

type registry struct {
	mu      sync.RWMutex
	schemas map[AnnotationType]AnnotationSchema
}

// NewRegistry creates an empty registry
func NewRegistry() AnnotationRegistry {
	return &registry{
		schemas: make(map[AnnotationType]AnnotationSchema),
	}
}

var (
	defaultRegistry     AnnotationRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global registry seeded with the builtin schemas
func DefaultRegistry() AnnotationRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, schema := range BuiltinSchemas {
			if err := defaultRegistry.Register(schema.Type, schema); err != nil {
				panic(fmt.Sprintf("failed to register builtin schema %s: %v", schema.Type, err))
			}
		}
	})
	return defaultRegistry
}

// Register adds a directive type with its schema
func (r *registry) Register(annotationType AnnotationType, schema AnnotationSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if schema.Type != annotationType {
		return fmt.Errorf("schema type %s does not match directive type %s",
			schema.Type.String(), annotationType.String())
	}

	if _, exists := r.schemas[annotationType]; exists {
		return fmt.Errorf("directive %s is already registered", annotationType.String())
	}

	if err := validateSchema(schema); err != nil {
		return fmt.Errorf("invalid schema for %s: %w", annotationType.String(), err)
	}

	r.schemas[annotationType] = schema
	return nil
}

// GetSchema retrieves the schema for a directive type
func (r *registry) GetSchema(annotationType AnnotationType) (AnnotationSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[annotationType]
	if !exists {
		return AnnotationSchema{}, fmt.Errorf("directive %s is not registered", annotationType.String())
	}

	return schema, nil
}

// ListTypes returns all registered directive types in declaration order
func (r *registry) ListTypes() []AnnotationType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]AnnotationType, 0, len(r.schemas))
	for annotationType := range r.schemas {
		types = append(types, annotationType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// IsRegistered checks if a directive type is registered
func (r *registry) IsRegistered(annotationType AnnotationType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[annotationType]
	return exists
}

func validateSchema(schema AnnotationSchema) error {
	optionalSeen := false
	for i, arg := range schema.Args {
		if arg.Name == "" {
			return fmt.Errorf("argument %d has no name", i)
		}
		if arg.Required && optionalSeen {
			return fmt.Errorf("required argument %s follows an optional one", arg.Name)
		}
		if !arg.Required {
			optionalSeen = true
		}
	}
	for name, flag := range schema.Flags {
		if name == "" {
			return fmt.Errorf("flag name cannot be empty")
		}
		if flag.Boolean && flag.Validator != nil {
			return fmt.Errorf("boolean flag %s cannot have a validator", name)
		}
	}
	return nil
}
