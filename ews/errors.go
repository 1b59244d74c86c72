package ews

import (
	"errors"
	"fmt"
	"net"
)

// Exchange response codes this package reacts to.
const (
	codeServerBusy           = "ErrorServerBusy"
	codeTimeoutExpired       = "ErrorTimeoutExpired"
	codeInternalTransient    = "ErrorInternalServerTransientError"
	codeMailboxUnavailable   = "ErrorMailboxStoreUnavailable"
	codeConnectionFailed     = "ErrorConnectionFailed"
	codeFolderNotFound       = "ErrorFolderNotFound"
	codeItemNotFound         = "ErrorItemNotFound"
	codeInvalidID            = "ErrorInvalidId"
	codeInvalidIDMalformed   = "ErrorInvalidIdMalformed"
	codeNameResolutionEmpty  = "ErrorNameResolutionNoResults"
	codeNameResolutionNoMbox = "ErrorNameResolutionNoMailbox"
)

// FaultError is a failure reported by the Exchange endpoint itself, either as
// a non-2xx HTTP status or an error ResponseCode inside the SOAP body.
type FaultError struct {
	Op     string
	Status int    // HTTP status; 0 when the HTTP exchange succeeded
	Code   string // EWS ResponseCode or SOAP fault code
	Msg    string
}

func (e *FaultError) Error() string {
	switch {
	case e.Code != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Msg)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	default:
		return fmt.Sprintf("%s: http status %d", e.Op, e.Status)
	}
}

// TransportError is a network-level failure before any Exchange response was
// read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// TransientError is surfaced after the retry budget for a call is exhausted.
// The whole tool call may be retried later.
type TransientError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: backend unavailable after %d attempts: %v", e.Op, e.Attempts, e.Err)
}
func (e *TransientError) Unwrap() error { return e.Err }

// TimeoutError reports that the overall deadline elapsed while the call was
// waiting or in flight. The outcome is unknown.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("%s: deadline exceeded", e.Op) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// Retryable classifies a backend failure for the retry controller. Busy and
// availability signals are retryable; auth, validation and not-found failures
// are not.
func Retryable(err error) bool {
	var fault *FaultError
	if errors.As(err, &fault) {
		switch fault.Status {
		case 429, 500, 502, 503, 504:
			return true
		}
		switch fault.Code {
		case codeServerBusy, codeTimeoutExpired, codeInternalTransient,
			codeMailboxUnavailable, codeConnectionFailed:
			return true
		}
		return false
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsNotFound reports whether err identifies a folder or item that does not
// exist, or an identifier Exchange could not parse. Folder resolution falls
// through to the next strategy on these; everything else propagates.
func IsNotFound(err error) bool {
	var fault *FaultError
	if !errors.As(err, &fault) {
		return false
	}
	switch fault.Code {
	case codeFolderNotFound, codeItemNotFound, codeInvalidID, codeInvalidIDMalformed:
		return true
	}
	return false
}
