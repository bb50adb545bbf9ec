package domain

import "errors"

// ErrVersionConflict is returned by the store when a wallet's version changed
// between load and save. It is control flow for the retry coordinator only;
// business logic never inspects it and callers see it solely wrapped in a
// ConcurrencyExhausted failure once retries run out.
var ErrVersionConflict = errors.New("wallet version conflict")
