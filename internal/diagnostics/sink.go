package diagnostics

import (
	"sort"
	"sync"

	"github.com/toyz/bindplan/internal/models"
)

// Reporter receives diagnostics for a single handler
type Reporter interface {
	Report(d Diagnostic)
}

// Sink is the append-only, concurrency-safe store shared by all analysis passes.
// Diagnostics of one handler keep their report order; handlers are independent.
type Sink struct {
	mu      sync.Mutex
	byID    map[models.HandlerID][]Diagnostic
	handler []models.HandlerID // first-report order, used only for stable iteration
}

// NewSink creates an empty sink
func NewSink() *Sink {
	return &Sink{byID: make(map[models.HandlerID][]Diagnostic)}
}

// Add appends a diagnostic
func (s *Sink) Add(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[d.Handler]; !ok {
		s.handler = append(s.handler, d.Handler)
	}
	s.byID[d.Handler] = append(s.byID[d.Handler], d)
}

// For returns a reporter that stamps every diagnostic with the handler identity
func (s *Sink) For(id models.HandlerID, pos models.SourcePosition) *HandlerReporter {
	return &HandlerReporter{sink: s, id: id, pos: pos}
}

// Handler returns the diagnostics of one handler in report order
func (s *Sink) Handler(id models.HandlerID) Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Diagnostics(nil), s.byID[id]...)
}

// All returns every diagnostic grouped by handler, handlers sorted by identity
func (s *Sink) All() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := append([]models.HandlerID(nil), s.handler...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	var all Diagnostics
	for _, id := range ids {
		all = append(all, s.byID[id]...)
	}
	return all
}

// Len returns the number of diagnostics collected
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ds := range s.byID {
		n += len(ds)
	}
	return n
}

// HandlerReporter reports into a Sink on behalf of one handler
type HandlerReporter struct {
	sink *Sink
	id   models.HandlerID
	pos  models.SourcePosition
}

// Report implements Reporter
func (r *HandlerReporter) Report(d Diagnostic) {
	d.Handler = r.id
	if d.Position.File == "" {
		d.Position = r.pos
	}
	r.sink.Add(d)
}

// Collector is a Reporter that keeps diagnostics in memory and tracks fatality.
// Passes use it to decide validity before forwarding to a shared reporter.
type Collector struct {
	Diagnostics Diagnostics
	next        Reporter
}

// NewCollector creates a collector forwarding to next, which may be nil
func NewCollector(next Reporter) *Collector {
	return &Collector{next: next}
}

// Report implements Reporter
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
	if c.next != nil {
		c.next.Report(d)
	}
}

// Fatal reports whether any collected diagnostic invalidates the handler
func (c *Collector) Fatal() bool {
	for _, d := range c.Diagnostics {
		if d.Kind.Fatal() {
			return true
		}
	}
	return false
}
