package archive

import "fmt"

// PackagingError classifies every failure that happens while writing an
// archive entry.
type PackagingError struct {
	Entry string
	Err   error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging entry %q: %s", e.Entry, e.Err)
}

func (e *PackagingError) Unwrap() error {
	return e.Err
}
