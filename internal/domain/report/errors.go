package report

import "errors"

var (
	// ErrNotFound covers both truly absent records and records whose
	// deleted flag does not match the requested operation.
	ErrNotFound = errors.New("report not found")

	// ErrNotValidated means the technician has no live validation entry
	// and therefore may not create a report.
	ErrNotValidated = errors.New("tr identity number not validated")

	// ErrUnauthorized means the caller is not the technician who owns
	// the report.
	ErrUnauthorized = errors.New("report belongs to another technician")

	ErrNoPhoto = errors.New("report has no photo")
)
