package sheets

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

var (
	// ErrTransientStore marks server-side failures expected to self-resolve.
	// Writes failing with it are retried with backoff.
	ErrTransientStore = errors.New("transient store error")
	// ErrPermanentStore marks authorization and other non-retryable
	// failures. The batch degrades to local persistence immediately.
	ErrPermanentStore = errors.New("permanent store error")
	// ErrSchemaMismatch means the remote sheet is missing required columns.
	// Surfaced before extraction work is spent.
	ErrSchemaMismatch = errors.New("store schema mismatch")
)

// classify folds a Sheets API error into the retry taxonomy. HTTP 5xx is
// transient; everything else, permission denials included, is permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 {
			return fmt.Errorf("%w: %v", ErrTransientStore, err)
		}
		return fmt.Errorf("%w: %v", ErrPermanentStore, err)
	}
	// Network-level failures (connection reset, DNS) are worth retrying.
	return fmt.Errorf("%w: %v", ErrTransientStore, err)
}
