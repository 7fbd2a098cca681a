package queue

import "fmt"

// ValidationError rejects a check-in before any state is touched.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}
