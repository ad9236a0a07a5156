package ingest

import "fmt"

// LoadError is returned when an input file is missing or malformed
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// CorrespondenceError is returned when subject, power and ECG files cannot
// be matched one-to-one for an identifier
type CorrespondenceError struct {
	ID     int
	Reason string
}

func (e *CorrespondenceError) Error() string {
	return fmt.Sprintf("subject %d: %s", e.ID, e.Reason)
}
