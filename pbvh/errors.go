package pbvh

import (
	"errors"
	"fmt"
)

var ErrInvalidOptions = errors.New("pbvh: invalid options")

// Panic with a descriptive message if cond does not hold. It guards contract
// violations that callers cannot recover from, such as querying an unbuilt
// tree or passing an out of range node index.
func assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("pbvh: "+format, args...))
	}
}
