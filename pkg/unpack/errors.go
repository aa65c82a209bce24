package unpack

import "fmt"

// UploadError tags an object-storage failure with the entry that caused it.
type UploadError struct {
	// Key is the destination key of the failed upload.
	Key string

	// Err is the underlying provider error.
	Err error
}

// Error implements the error interface.
func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *UploadError) Unwrap() error {
	return e.Err
}
