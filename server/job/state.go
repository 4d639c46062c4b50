package job

import "fmt"

// State is a step of a job's linear lifecycle.
type State int

const (
	Start State = iota
	Bootstrapped
	Extracted
	Built
	Packaged
	Uploaded
	ReportedSuccess
	ReportedFailure
)

var stateNames = map[State]string{
	Start:           "start",
	Bootstrapped:    "bootstrapped",
	Extracted:       "extracted",
	Built:           "built",
	Packaged:        "packaged",
	Uploaded:        "uploaded",
	ReportedSuccess: "reported_success",
	ReportedFailure: "reported_failure",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FailedError is returned for any job that could not reach State.
type FailedError struct {
	State State
	Err   error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("job failed reaching %s: %s", e.State, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Format keeps the wrapped error's stack trace available to %+v.
func (e *FailedError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "job failed reaching %s: %+v", e.State, e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}
