package domain

import "errors"

var (
	// ErrRecordNotFound is returned when a row reference points past the
	// end of the record store.
	ErrRecordNotFound = errors.New("completion record not found")
	// ErrStoreUnavailable wraps record-store transport failures so the
	// dispatcher can keep the session in its current stage.
	ErrStoreUnavailable = errors.New("record store unavailable")
)
