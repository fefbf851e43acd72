package errors

// Outcome is the tagged result of one external call: success, a warning the
// pipeline recovers from locally, or a fatal error.
type Outcome struct {
	Err error
}

// Succeeded returns a successful outcome.
func Succeeded() Outcome {
	return Outcome{}
}

// OutcomeOf wraps err; its code severity classifies the outcome.
func OutcomeOf(err error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Severity returns the severity of a failed outcome.
func (o Outcome) Severity() Severity {
	return CodeOf(o.Err).Severity()
}

// Fatal reports whether the outcome must abort the pipeline.
func (o Outcome) Fatal() bool {
	return o.Err != nil && o.Severity() == Fatal
}

// Warning reports whether the outcome is a recoverable failure.
func (o Outcome) Warning() bool {
	return o.Err != nil && o.Severity() != Fatal
}

// String returns "success", "warning" or "fatal".
func (o Outcome) String() string {
	switch {
	case o.OK():
		return "success"
	case o.Fatal():
		return "fatal"
	default:
		return "warning"
	}
}
