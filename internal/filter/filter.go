// Package filter holds the query predicates applied to a file's log entries.
package filter

import (
	"errors"
	"fmt"
)

// ErrUnknownFilter is returned when a filter name is not recognized.
var ErrUnknownFilter = errors.New("filter: unknown filter name")

// Name identifies one query predicate. Values match the wire field names.
type Name string

const (
	Operation  Name = "operation"
	Level      Name = "level"
	Component  Name = "component"
	ReqID      Name = "req_id"
	SearchText Name = "search_text"
	TimeFrom   Name = "time_from"
	TimeTo     Name = "time_to"
)

// Names lists every recognized filter in wire order.
var Names = []Name{Operation, Level, Component, ReqID, SearchText, TimeFrom, TimeTo}

// ParseName converts a raw string into a Name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// Filters is the active predicate set. An empty field means "no filter".
type Filters struct {
	Operation  string
	Level      string
	Component  string
	ReqID      string
	SearchText string
	TimeFrom   string
	TimeTo     string
}

// Field is one non-empty predicate.
type Field struct {
	Name  Name
	Value string
}

func (f *Filters) field(name Name) (*string, error) {
	switch name {
	case Operation:
		return &f.Operation, nil
	case Level:
		return &f.Level, nil
	case Component:
		return &f.Component, nil
	case ReqID:
		return &f.ReqID, nil
	case SearchText:
		return &f.SearchText, nil
	case TimeFrom:
		return &f.TimeFrom, nil
	case TimeTo:
		return &f.TimeTo, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, string(name))
}

// Set merges one predicate. An empty value keeps the field but it is
// left out when the query is built.
func (f *Filters) Set(name Name, value string) error {
	p, err := f.field(name)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

// Get returns the current value of a predicate.
func (f Filters) Get(name Name) (string, error) {
	p, err := f.field(name)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Fields returns the non-empty predicates in wire order.
func (f Filters) Fields() []Field {
	out := make([]Field, 0, len(Names))
	for _, n := range Names {
		v, _ := f.Get(n)
		if v != "" {
			out = append(out, Field{Name: n, Value: v})
		}
	}
	return out
}

// Map returns the non-empty predicates keyed by wire name.
func (f Filters) Map() map[string]string {
	fields := f.Fields()
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(fields))
	for _, fl := range fields {
		m[string(fl.Name)] = fl.Value
	}
	return m
}

// IsZero reports whether no predicate is active.
func (f Filters) IsZero() bool {
	return len(f.Fields()) == 0
}
