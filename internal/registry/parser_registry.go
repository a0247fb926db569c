package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/pkg/bindplan"
)

// ParserEntry describes how a value type is produced from request text
type ParserEntry struct {
	TypeName  string // qualified type name: import path + "." + name, or a package-local name
	Function  string // parse function name
	WellKnown bool   // handled by the bindplan runtime rather than a user TryParse function
	Position  models.SourcePosition
}

// ParserRegistry tracks parseable value types: the runtime's well-known types plus
// TryParse contracts discovered in user packages
type ParserRegistry struct {
	parsers map[string]ParserEntry
	mu      sync.RWMutex
}

// NewParserRegistry creates a registry seeded with the well-known value types
func NewParserRegistry() *ParserRegistry {
	r := &ParserRegistry{parsers: make(map[string]ParserEntry)}
	r.seed()
	return r
}

func (r *ParserRegistry) seed() {
	for typeName, fn := range bindplan.WellKnownTypes {
		r.parsers[typeName] = ParserEntry{TypeName: typeName, Function: fn, WellKnown: true}
	}
}

// RegisterParser registers a parse contract for a type
func (r *ParserRegistry) RegisterParser(entry ParserEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.parsers[entry.TypeName]; exists {
		if existing.WellKnown {
			return fmt.Errorf("type %s already has a builtin parser", entry.TypeName)
		}
		return fmt.Errorf("type %s already has parser %s at %s", entry.TypeName, existing.Function, existing.Position)
	}

	r.parsers[entry.TypeName] = entry
	return nil
}

// GetParser retrieves the parser registered for a type
func (r *ParserRegistry) GetParser(typeName string) (ParserEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.parsers[typeName]
	return entry, exists
}

// IsWellKnown reports whether the type is converted by the runtime itself
func (r *ParserRegistry) IsWellKnown(typeName string) bool {
	entry, ok := r.GetParser(typeName)
	return ok && entry.WellKnown
}

// ListParsers returns all registered type names, sorted
func (r *ParserRegistry) ListParsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.parsers))
	for typeName := range r.parsers {
		types = append(types, typeName)
	}
	sort.Strings(types)
	return types
}

// ClearCustomParsers removes discovered parsers, keeping the well-known ones
func (r *ParserRegistry) ClearCustomParsers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers = make(map[string]ParserEntry)
	r.seed()
}

// CustomParsers returns the discovered TryParse contracts, sorted by type name
func (r *ParserRegistry) CustomParsers() []ParserEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []ParserEntry
	for _, entry := range r.parsers {
		if !entry.WellKnown {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TypeName < entries[j].TypeName })
	return entries
}
