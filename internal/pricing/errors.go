package pricing

import (
	"errors"
	"fmt"
)

// ErrQueryTooShort rejects queries that are empty or too short to search
// for. Surfaced as a 400 on the single endpoint and as a per-item error in
// batches.
var ErrQueryTooShort = errors.New("query must be at least 2 characters long")

// BatchSizeError rejects a batch before any work starts.
type BatchSizeError struct {
	Size int
	Max  int
}

func (e *BatchSizeError) Error() string {
	if e.Size == 0 {
		return "batch must contain at least one query"
	}
	return fmt.Sprintf("batch of %d queries exceeds the maximum of %d", e.Size, e.Max)
}
