package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrMalformedPayload = fmt.Errorf("malformed payload")
	ErrStoreUnavailable = fmt.Errorf("message store unavailable")
	ErrTransportClosed  = fmt.Errorf("transport closed")
	ErrTransportWrite   = fmt.Errorf("transport write failure")
	ErrUnknownDriver    = fmt.Errorf("unknown store driver")
)

// ErrorCode is the machine readable code sent back to a client in an error acknowledgment.
type ErrorCode string

const (
	CodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	CodeInternal         ErrorCode = "INTERNAL"
)

// MapToErrorCode translates a sentinel error into the code exposed on the wire.
func MapToErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		return CodeMalformedPayload
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	default:
		return CodeInternal
	}
}

// MapToHTTPStatus translates a sentinel error into the status of the HTTP submission path.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusAccepted
	case errors.Is(err, ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether any error in err's tree matches target, see errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
