package engine

import "fmt"

// ValidationError is a fatal normalization failure: malformed or duplicate
// input that the normalizer cannot proceed past. The caller decides whether
// to abort or drop the offending record and retry.
type ValidationError struct {
	Rule   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("validation: rule %q: %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("validation: rule %q field %s: %s", e.Rule, e.Field, e.Reason)
}

// ConfigError is an invalid threshold or weight configuration; it is fatal
// to the Analyze call only.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Option, e.Reason)
}

// AnalysisError is an internal invariant violation or a cancelled run.
// Analysis is all-or-nothing: when one is returned, no finding stream from
// that run is usable.
type AnalysisError struct {
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("analysis: %s", e.Reason)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
