package models

import "fmt"

// EntryKind tells where a union entry came from
type EntryKind int

const (
	EntrySuccess EntryKind = iota
	EntryBindingFailure
	EntryOutcome
	EntryExplicit
	EntryMiddleware
	EntrySafetyNet
)

// String returns the entry kind name
func (k EntryKind) String() string {
	switch k {
	case EntrySuccess:
		return "success"
	case EntryBindingFailure:
		return "binding"
	case EntryOutcome:
		return "outcome"
	case EntryExplicit:
		return "explicit"
	case EntryMiddleware:
		return "middleware"
	case EntrySafetyNet:
		return "safety-net"
	}
	return fmt.Sprintf("EntryKind(%d)", int(k))
}

// MarshalText encodes the entry kind by name
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnionEntry is one (status code, shape) arm of a response union
type UnionEntry struct {
	Status int       `json:"status" yaml:"status" msgpack:"status"`
	Shape  string    `json:"shape" yaml:"shape" msgpack:"shape"`
	Kind   EntryKind `json:"kind" yaml:"kind" msgpack:"kind"`
}

// UnionMode selects the populated variant of a UnionResult
type UnionMode int

const (
	UnionBounded UnionMode = iota
	UnionFallback
)

// String returns the mode name
func (m UnionMode) String() string {
	if m == UnionFallback {
		return "fallback"
	}
	return "bounded"
}

// MarshalText encodes the mode by name
func (m UnionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnionResult is either a bounded closed union or an open fallback.
// Bounded results carry Entries; fallback results carry StatusCodes.
type UnionResult struct {
	Mode        UnionMode    `json:"mode" yaml:"mode" msgpack:"mode"`
	Entries     []UnionEntry `json:"entries,omitempty" yaml:"entries,omitempty" msgpack:"entries,omitempty"`
	StatusCodes []int        `json:"status_codes,omitempty" yaml:"status_codes,omitempty" msgpack:"status_codes,omitempty"`
}

// Bounded builds a closed union result
func Bounded(entries []UnionEntry) UnionResult {
	return UnionResult{Mode: UnionBounded, Entries: entries}
}

// Fallback builds an open fallback result
func Fallback(codes []int) UnionResult {
	return UnionResult{Mode: UnionFallback, StatusCodes: codes}
}

// IsBounded reports whether the result is a closed union
func (u UnionResult) IsBounded() bool {
	return u.Mode == UnionBounded
}
