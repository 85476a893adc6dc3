package contract

import (
	"errors"
	"fmt"
	"strings"

	"roomShare/internal/apperrors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// JSON-RPC 2.0 "invalid params".
const invalidParamsCode = -32602

var malformedHints = []string{
	"invalid argument",
	"invalid params",
}

func containsAny(msg string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(msg, hint) {
			return true
		}
	}

	return false
}

// classify wraps a provider error with the failure kind it represents.
// ErrConnection is kept for transport failures; any error the node answered
// with is a rejection, a revert or bad input.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, apperrors.ErrContractReverted) || errors.Is(err, apperrors.ErrRejectedTransaction) ||
		errors.Is(err, apperrors.ErrConnection) || errors.Is(err, apperrors.ErrMalformedInput) {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "revert") || strings.Contains(msg, "invalid opcode") {
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrContractReverted, revertReason(err))
	}

	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrConnection, err)
	}

	switch {
	case rpcErr.ErrorCode() == invalidParamsCode || containsAny(msg, malformedHints):
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrMalformedInput, err)
	default:
		// EIP-1193 4001, insufficient funds, locked or unknown accounts.
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrRejectedTransaction, err)
	}
}

// revertReason decodes Error(string) revert data when the node returns it.
func revertReason(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return err.Error()
	}

	encoded, ok := dataErr.ErrorData().(string)
	if !ok {
		return err.Error()
	}

	data, decodeErr := hexutil.Decode(encoded)
	if decodeErr != nil {
		return err.Error()
	}

	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return err.Error()
	}

	return reason
}
