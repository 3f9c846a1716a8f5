package schema

import "fmt"

// Frame is one entry of a captured call stack.
type Frame struct {
	Function string
	File     string
	Line     int
}

func (f Frame) String() string {
	return fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line)
}

// CallStack is ordered innermost first.
type CallStack []Frame
