package tfparse

import "github.com/tinytelemetry/tflog/internal/model"

// Statistics summarises entries by level, operation and component.
func Statistics(entries []Entry) model.Statistics {
	st := model.Statistics{
		TotalEntries: len(entries),
		ByLevel:      map[string]int{},
		ByOperation:  map[string]int{},
		ByComponent:  map[string]int{},
	}
	for _, e := range entries {
		st.ByLevel[e.Level]++
		st.ByOperation[e.Operation]++
		st.ByComponent[e.Component]++
		if e.Level == LevelError {
			st.ErrorsCount++
		}
	}
	return st
}
