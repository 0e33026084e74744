package tui

import (
	"fmt"

	"github.com/tinytelemetry/tflog/internal/filter"
)

// filterField is one editable cell of the filter bar. Choice fields cycle
// through options; the others take typed input.
type filterField struct {
	label   string
	name    filter.Name
	bound   filter.Bound
	part    filter.Part
	options []string
}

func (f filterField) isTime() bool  { return f.part != "" }
func (f filterField) isChoice() bool { return len(f.options) > 0 }

// value reads the field's current text from fs.
func (f filterField) value(fs filter.Filters) string {
	if f.isTime() {
		tp := fs.TimeParts(f.bound)
		switch f.part {
		case filter.Hours:
			return tp.HH
		case filter.Minutes:
			return tp.MM
		case filter.Seconds:
			return tp.SS
		case filter.Millis:
			return tp.MS
		}
		return ""
	}
	v, _ := fs.Get(f.name)
	return v
}

// next returns the option after current, wrapping to "" (no filter).
func (f filterField) next(current string) string {
	for i, o := range f.options {
		if o == current {
			if i+1 < len(f.options) {
				return f.options[i+1]
			}
			return ""
		}
	}
	return f.options[0]
}

func (f filterField) inputLimit() int {
	if f.isTime() {
		return f.part.MaxLen()
	}
	return 200
}

func timeFields(b filter.Bound, prefix string) []filterField {
	name := filter.TimeFrom
	if b == filter.To {
		name = filter.TimeTo
	}
	parts := []filter.Part{filter.Hours, filter.Minutes, filter.Seconds, filter.Millis}
	out := make([]filterField, 0, len(parts))
	for _, p := range parts {
		out = append(out, filterField{
			label: fmt.Sprintf("%s %s", prefix, p),
			name:  name,
			bound: b,
			part:  p,
		})
	}
	return out
}

// defaultFields is the filter bar layout.
func defaultFields() []filterField {
	fields := []filterField{
		{label: "Level", name: filter.Level, options: []string{"error", "warn", "info", "debug", "trace"}},
		{label: "Operation", name: filter.Operation, options: []string{"plan", "apply", "validate", "init", "destroy", "refresh", "general"}},
		{label: "Component", name: filter.Component, options: []string{"core", "backend", "provider", "provisioner", "http", "grpc", "unknown"}},
		{label: "Req ID", name: filter.ReqID},
		{label: "Search", name: filter.SearchText},
	}
	fields = append(fields, timeFields(filter.From, "From")...)
	fields = append(fields, timeFields(filter.To, "To")...)
	return fields
}
