package extractor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field identifies one extractable CrashRecord field.
type Field string

const (
	FieldCrashTime         Field = "crash_time"
	FieldProcessName       Field = "process_name"
	FieldExceptionType     Field = "exception_type"
	FieldTerminationReason Field = "termination_reason"
)

// Rule binds a field to its ordered list of acceptable label synonyms.
// Labels are matched anchored at line start as "Label:" followed by
// whitespace; the first label to match a line wins for that field.
type Rule struct {
	Field  Field    `yaml:"field"`
	Labels []string `yaml:"labels"`
}

// DefaultRules returns the built-in extraction rule set covering the label
// variants seen across crash-report formats.
func DefaultRules() []Rule {
	return []Rule{
		{Field: FieldCrashTime, Labels: []string{"Date/Time", "Timestamp", "Time"}},
		{Field: FieldProcessName, Labels: []string{"Process", "Executable", "Application"}},
		{Field: FieldExceptionType, Labels: []string{"Exception Type", "Fault Type", "Error Type"}},
		{Field: FieldTerminationReason, Labels: []string{"Termination Reason", "Cause", "Reason"}},
	}
}

// LoadRules reads a YAML rule file with the same shape as DefaultRules, so
// label patterns can be extended without touching the scan logic.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := validateRules(rules); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

func validateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("no rules defined")
	}
	seen := make(map[Field]struct{}, len(rules))
	for _, r := range rules {
		switch r.Field {
		case FieldCrashTime, FieldProcessName, FieldExceptionType, FieldTerminationReason:
		default:
			return fmt.Errorf("unknown field %q", r.Field)
		}
		if _, dup := seen[r.Field]; dup {
			return fmt.Errorf("duplicate rule for field %q", r.Field)
		}
		seen[r.Field] = struct{}{}
		if len(r.Labels) == 0 {
			return fmt.Errorf("field %q has no labels", r.Field)
		}
	}
	return nil
}
