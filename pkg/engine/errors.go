package engine

import "fmt"

// ConfigurationError reports an infrastructure constant that would make the
// derived metrics meaningless (NaN, Inf or negative by construction).
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%g: %s", e.Field, e.Value, e.Reason)
}

// InvalidStateError reports an operational count outside [0, total]
type InvalidStateError struct {
	Field string
	Value int
	Max   int
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid operational state: %s=%d outside [0, %d]", e.Field, e.Value, e.Max)
}
