package casestatus

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReceipt indicates the receipt number is not three letters
	// followed by ten digits.
	ErrInvalidReceipt = errors.New("invalid receipt number")

	// ErrUnavailable indicates the status source could not be reached or
	// answered with a non-success status.
	ErrUnavailable = errors.New("case status source unavailable")

	// ErrUnparseable indicates the source answered but no status could be
	// found in the page.
	ErrUnparseable = errors.New("case status page unparseable")
)

// LookupError carries the request identity so callers can offer a manual
// check. It is never a denial.
type LookupError struct {
	Receipt string
	URL     string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("case status lookup for %s at %s: %v", e.Receipt, e.URL, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
