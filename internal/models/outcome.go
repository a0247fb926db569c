package models

import (
	"sort"

	"github.com/toyz/bindplan/pkg/outcome"
)

// OutcomeKind is a well-known failure category
type OutcomeKind = outcome.Kind

// CustomOutcome is a failure outside the closed set of kinds
type CustomOutcome struct {
	Status int    `json:"status" yaml:"status" msgpack:"status"`
	Label  string `json:"label" yaml:"label" msgpack:"label"`
}

// OutcomeSet is everything outcome discovery learned about a handler.
// It is filled during one walk and read-only afterwards.
type OutcomeSet struct {
	Kinds          []OutcomeKind       `json:"kinds,omitempty" yaml:"kinds,omitempty" msgpack:"kinds,omitempty"`
	Custom         []CustomOutcome     `json:"custom,omitempty" yaml:"custom,omitempty" msgpack:"custom,omitempty"`
	Declared       []OutcomeAnnotation `json:"declared,omitempty" yaml:"declared,omitempty" msgpack:"declared,omitempty"` // merged from documented interface members
	Undocumented   bool                `json:"undocumented,omitempty" yaml:"undocumented,omitempty" msgpack:"undocumented,omitempty"`
	UnknownFactory bool                `json:"unknown_factory,omitempty" yaml:"unknown_factory,omitempty" msgpack:"unknown_factory,omitempty"`
}

// AddKind records a kind, keeping Kinds sorted and unique
func (s *OutcomeSet) AddKind(kind OutcomeKind) {
	i := sort.Search(len(s.Kinds), func(i int) bool { return s.Kinds[i] >= kind })
	if i < len(s.Kinds) && s.Kinds[i] == kind {
		return
	}
	s.Kinds = append(s.Kinds, 0)
	copy(s.Kinds[i+1:], s.Kinds[i:])
	s.Kinds[i] = kind
}

// HasKind reports whether kind was recorded
func (s *OutcomeSet) HasKind(kind OutcomeKind) bool {
	for _, k := range s.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// AddCustom records a custom outcome once
func (s *OutcomeSet) AddCustom(c CustomOutcome) {
	for _, existing := range s.Custom {
		if existing == c {
			return
		}
	}
	s.Custom = append(s.Custom, c)
}

// AddDeclared records an annotation inherited from a documented member
func (s *OutcomeSet) AddDeclared(a OutcomeAnnotation) {
	for _, existing := range s.Declared {
		if existing == a {
			return
		}
	}
	s.Declared = append(s.Declared, a)
}

// ForcesFallback reports whether the set contains anything a closed union cannot express
func (s *OutcomeSet) ForcesFallback() bool {
	return len(s.Custom) > 0 || s.Undocumented || s.UnknownFactory
}
