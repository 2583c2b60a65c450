package fetch

import (
	"errors"
	"fmt"
)

// ErrTooManyRedirects is wrapped in a TransferError when a download bounces
// through more than MaxRedirects locations.
var ErrTooManyRedirects = errors.New("too many redirects")

// TransferError is a network-level failure: DNS, connection reset, short
// body, redirect loop.
type TransferError struct {
	URL string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer of %s failed: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// RejectedError is returned when the server answers with a non-2xx,
// non-redirect status.
type RejectedError struct {
	URL        string
	StatusCode int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("server rejected %s with status %d", e.URL, e.StatusCode)
}

// StorageError is a local filesystem failure while writing the artifact.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cannot store artifact at %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsTransferError reports whether err is, or wraps, a TransferError.
func IsTransferError(err error) bool {
	var te *TransferError
	return errors.As(err, &te)
}

// IsRejectedError reports whether err is, or wraps, a RejectedError.
func IsRejectedError(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
