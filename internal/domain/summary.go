package domain

import "fmt"

// Summary reports the outcome of one ingestion run.
type Summary struct {
	RunID        string
	TotalRecords int64
	Added        []CrashRecord
}

// DigestLines renders one human-readable line per newly added record,
// in the "time | process | exception" form printed after a run.
func (s Summary) DigestLines() []string {
	lines := make([]string, 0, len(s.Added))
	for _, rec := range s.Added {
		lines = append(lines, fmt.Sprintf("- %s | %s | %s", rec.CrashTime, rec.ProcessName, rec.ExceptionType))
	}
	return lines
}
