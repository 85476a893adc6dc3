// Package apperrors holds the failure kinds surfaced to the browser.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrConnection          = errors.New("provider unreachable")
	ErrRejectedTransaction = errors.New("transaction rejected")
	ErrContractReverted    = errors.New("contract reverted")
	ErrInvalidSelection    = errors.New("invalid room selection")
	ErrNoSelection         = errors.Join(ErrInvalidSelection, errors.New("no room selected"))
	ErrMalformedInput      = errors.New("malformed input")
	ErrSubmissionInFlight  = errors.New("submission already in flight")
	ErrContractMissing     = errors.New("no contract code at address")
)

// Status maps an error to the HTTP status the handlers reply with.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidSelection), errors.Is(err, ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRejectedTransaction):
		return http.StatusForbidden
	case errors.Is(err, ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrContractReverted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConnection):
		return http.StatusBadGateway
	default:
		// ErrContractMissing included: a misconfigured deployment.
		return http.StatusInternalServerError
	}
}

// Message is the user-facing text for an error kind.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoSelection):
		return "Select a room first"
	case errors.Is(err, ErrInvalidSelection):
		return "The selected room could not be read, reload the room list"
	case errors.Is(err, ErrMalformedInput):
		return "Check the entered values, dates must look like YYYY-MM-DD and check-out must follow check-in"
	case errors.Is(err, ErrRejectedTransaction):
		return "The transaction was declined by the wallet"
	case errors.Is(err, ErrSubmissionInFlight):
		return "A previous transaction is still being processed"
	case errors.Is(err, ErrContractReverted):
		return "The contract refused the transaction"
	case errors.Is(err, ErrConnection):
		return "The blockchain node is unreachable"
	case errors.Is(err, ErrContractMissing):
		return "No RoomShare contract is deployed at the configured address"
	default:
		return "Unexpected error"
	}
}

// Kind names the failure for the submission journal.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrRejectedTransaction):
		return "rejected_transaction"
	case errors.Is(err, ErrContractReverted):
		return "contract_reverted"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrContractMissing):
		return "contract_missing"
	default:
		return "unknown"
	}
}
