package gridbook

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinate indicates a negative row or column index.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ErrInvalidAddress indicates a label that does not match ^[A-Z]+[0-9]+$.
var ErrInvalidAddress = errors.New("invalid cell address")

// ErrCellNotFound indicates a cell id that does not resolve to a cell
// in the active sheet.
var ErrCellNotFound = errors.New("cell not found")

// ErrSheetNotFound indicates a sheet id or name unknown to the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrLastSheet indicates an attempt to remove the only sheet in a workbook.
var ErrLastSheet = errors.New("cannot remove the last sheet")

// APIError is a decoded error response from the workbook service.
// Message is always populated: when the response body is absent or not
// JSON, a generic message is synthesized from the HTTP status.
type APIError struct {
	Status  int            // HTTP status code
	Code    string         // service error code, may be empty
	Message string         // human-readable message
	Details map[string]any // optional structured details
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("workbook service: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("workbook service: %s (status %d)", e.Message, e.Status)
}

// Transient reports whether the error is worth retrying: timeouts and
// rate limiting and server-side failures are transient, other 4xx are not.
func (e *APIError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}
