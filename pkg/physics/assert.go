// pkg/physics/assert.go
package physics

import "fmt"

// InvariantError is the panic value raised when a precondition or invariant
// is violated. These are programming defects, not runtime conditions.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Message
}

// Assert panics with an *InvariantError when cond is false.
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(&InvariantError{Message: fmt.Sprintf(format, args...)})
}
