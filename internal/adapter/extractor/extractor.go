package extractor

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/dmaynor/bandicoot/internal/domain"
)

// Extractor turns raw crash-report text into a structured CrashRecord using
// ordered, fallback-tolerant pattern rules.
type Extractor struct {
	rules   []compiledRule
	verbose bool
	logger  *slog.Logger
}

type compiledRule struct {
	field    Field
	patterns []*regexp.Regexp
}

// New compiles the given rule set into an Extractor. Each label becomes a
// line-anchored "Label:" pattern tolerant of varying whitespace after the
// colon; the captured value is the rest of the line.
func New(rules []Rule, verbose bool, logger *slog.Logger) (*Extractor, error) {
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{field: r.Field}
		for _, label := range r.Labels {
			// The capture must start on a non-whitespace character so a
			// label followed only by trailing blanks never latches its
			// field empty.
			p, err := regexp.Compile(`^` + regexp.QuoteMeta(label) + `:\s+(\S.*)`)
			if err != nil {
				return nil, fmt.Errorf("compile pattern for label %q: %w", label, err)
			}
			cr.patterns = append(cr.patterns, p)
		}
		compiled = append(compiled, cr)
	}

	return &Extractor{rules: compiled, verbose: verbose, logger: logger}, nil
}

// Extract parses the report file at path. It never fails past its boundary:
// a read error yields a record whose ExceptionType carries the failure
// description and whose other fields hold the "Error" sentinel. Bytes that
// do not decode as UTF-8 are dropped rather than failing the whole read.
func (e *Extractor) Extract(path string) domain.CrashRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("failed to read report file", "path", path, "error", err)
		return domain.NewErrorRecord(path, err)
	}

	rec := domain.NewUnknownRecord(path)
	text := strings.ToValidUTF8(string(data), "")
	rec.LogContent = text

	// Line-by-line scan, first match wins per field: a later line can never
	// overwrite a field an earlier line already resolved.
	latched := make(map[Field]bool, len(e.rules))
	for _, line := range strings.Split(text, "\n") {
		if e.verbose {
			e.logger.Debug("scanning line", "path", path, "line", line)
		}
		for _, rule := range e.rules {
			if latched[rule.field] {
				continue
			}
			for _, p := range rule.patterns {
				m := p.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				setField(&rec, rule.field, strings.TrimSpace(m[1]))
				latched[rule.field] = true
				break
			}
		}
		// Verbose mode keeps echoing to the end of the file even once every
		// field has latched.
		if len(latched) == len(e.rules) && !e.verbose {
			break
		}
	}

	return rec
}

func setField(rec *domain.CrashRecord, field Field, value string) {
	switch field {
	case FieldCrashTime:
		rec.CrashTime = value
	case FieldProcessName:
		rec.ProcessName = value
	case FieldExceptionType:
		rec.ExceptionType = value
	case FieldTerminationReason:
		rec.TerminationReason = value
	}
}
