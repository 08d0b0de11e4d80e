package sysinfo

import "fmt"

// Introspection sources named in EnvironmentQueryError.
const (
	SourceHost      = "host"
	SourceBootTime  = "boot-time"
	SourceCPU       = "cpu"
	SourceCPUCounts = "cpu-counts"
	SourceMemory    = "memory"
	SourceNetwork   = "network"
	SourceLoad      = "load"
)

// EnvironmentQueryError reports a failed OS introspection call.
type EnvironmentQueryError struct {
	Source string
	Err    error
}

func (e *EnvironmentQueryError) Error() string {
	return fmt.Sprintf("environment query %s: %v", e.Source, e.Err)
}

func (e *EnvironmentQueryError) Unwrap() error { return e.Err }

func queryErr(source string, err error) error {
	return &EnvironmentQueryError{Source: source, Err: err}
}
