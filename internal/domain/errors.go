package domain

import "fmt"

// Error taxonomy for the notification pipeline. Errors are typed so callers
// can route on failure class with errors.As instead of string matching.

// ProtocolError marks a notification payload that does not decode to a
// content id. It is recoverable at the listener: log, skip, continue.
type ProtocolError struct {
	Payload string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed notification payload %q: %v", e.Payload, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NotFoundError marks a content id with no joined post/author/thread row.
type NotFoundError struct {
	ContentID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content %d has no joined record", e.ContentID)
}

// MappingError marks a detector-required field missing from a record or a
// provider response.
type MappingError struct {
	Detector string
	Field    string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: required field %q is absent", e.Detector, e.Field)
}

// ConnectivityError marks a network or transport failure talking to a remote
// detector endpoint, including request timeouts.
type ConnectivityError struct {
	Detector string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: remote call failed: %v", e.Detector, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ProviderError marks a structured error returned by a detector endpoint
// inside an otherwise well-formed response.
type ProviderError struct {
	Detector string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider returned error (status %d): %s", e.Detector, e.Status, e.Message)
}

// StorageError marks a persistence failure writing a detection result.
type StorageError struct {
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("save into %s: %v", e.Table, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
