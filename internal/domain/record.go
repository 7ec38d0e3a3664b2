package domain

// Sentinel values for extraction fields.
const (
	// ValueUnknown marks a field whose label never appeared in otherwise
	// readable report text.
	ValueUnknown = "Unknown"

	// ValueError marks the fields of a record whose source file could not
	// be read or decoded at all.
	ValueError = "Error"
)

// CrashRecord is the structured extraction of one crash-report file.
// FilePath is the dedup key: at most one stored record exists per source
// file. Once persisted a record is immutable except for Notation, which is
// owned by the external viewer.
type CrashRecord struct {
	ID                int64
	CrashTime         string
	ProcessName       string
	ExceptionType     string
	TerminationReason string
	FilePath          string
	LogContent        string
	Notation          string
}

// NewUnknownRecord returns a record for path with all extraction fields set
// to the "not found" sentinel, ready for the extractor to latch values into.
func NewUnknownRecord(path string) CrashRecord {
	return CrashRecord{
		CrashTime:         ValueUnknown,
		ProcessName:       ValueUnknown,
		ExceptionType:     ValueUnknown,
		TerminationReason: ValueUnknown,
		FilePath:          path,
	}
}

// NewErrorRecord returns the record produced when path could not be read.
// The failure description travels in ExceptionType so it is visible in the
// stored table and in run digests.
func NewErrorRecord(path string, err error) CrashRecord {
	return CrashRecord{
		CrashTime:         ValueError,
		ProcessName:       ValueError,
		ExceptionType:     err.Error(),
		TerminationReason: ValueError,
		FilePath:          path,
	}
}
