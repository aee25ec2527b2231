// Package gen provides utility functions for generating values.
package gen

import (
	"github.com/google/uuid"
)

// RunID returns a random identifier used to correlate log lines of one target run.
func RunID() string {
	return uuid.NewString()
}
