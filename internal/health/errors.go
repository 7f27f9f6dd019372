package health

import "fmt"

// IOError reports a failure to open or read the input. It always aborts the parse.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("health export %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("health export %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
