package usage

import "errors"

var (
	// ErrWriteConflict is a transient loss of a concurrent write race.
	// The Ledger retries it once before surfacing it.
	ErrWriteConflict = errors.New("usage: write conflict")

	ErrInvalidPeriod = errors.New("usage: invalid period")
	ErrInvalidKey    = errors.New("usage: invalid usage key")
	ErrInvalidCredit = errors.New("usage: invalid credit")
	ErrStorage       = errors.New("usage: storage failure")
)
