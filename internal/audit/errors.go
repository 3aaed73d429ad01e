package audit

import "errors"

// Sentinel errors the coordinator and dispatcher recognize and convert
// into a recorded invoice-level verdict rather than letting them abort a
// batch. Anything else is treated as StoreUnavailable-class and
// propagates to the caller.
var (
	// ErrInvoiceNotFound means the selector referenced an unknown invoice.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrZoneUnknown means a country or AU domestic zone required for
	// routing or pricing could not be resolved from the address text.
	ErrZoneUnknown = errors.New("zone could not be resolved")

	// ErrCurrencyMissing means the invoice carries a non-USD currency with
	// no exchange rate to normalize it; the engine never guesses 1.0.
	ErrCurrencyMissing = errors.New("no exchange rate available for invoice currency")

	// ErrStoreUnavailable means the rate store or invoice store could not
	// be reached. Unlike the errors above, this propagates to the caller
	// and terminates the enclosing batch.
	ErrStoreUnavailable = errors.New("rate store unavailable")
)
