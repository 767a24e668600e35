package chart

import "fmt"

// Result is the outcome of compiling one chart: either a spec or the reason
// no spec could be built.
type Result struct {
	spec   Spec
	reason string
	ok     bool
}

// Ok wraps a compiled spec.
func Ok(s Spec) Result {
	return Result{spec: s, ok: true}
}

// Err reports a failed compilation. An empty reason is a silent failure.
func Err(reason string) Result {
	return Result{reason: reason}
}

// Errorf is Err with formatting.
func Errorf(format string, args ...any) Result {
	return Err(fmt.Sprintf(format, args...))
}

// IsOk reports whether compilation succeeded.
func (r Result) IsOk() bool {
	return r.ok
}

// Reason returns the failure reason.
func (r Result) Reason() string {
	return r.reason
}

// Spec returns the compiled spec, or an empty spec titled with the failure
// reason.
func (r Result) Spec() Spec {
	if !r.ok {
		return Empty(r.reason)
	}
	return r.spec
}
