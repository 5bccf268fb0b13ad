//go:build !debug

package physics

import (
	"fmt"
	"log"
)

// assert logs instead of panicking outside debug builds. Callers still
// bail out on their own after a failed check.
func assert(truth bool, msg ...interface{}) {
	if !truth {
		log.Println("Assertion failed:", fmt.Sprint(msg...))
	}
}
