package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPurchaseRequest = errors.New("purchase request is invalid")
	ErrSystemPaused           = errors.New("purchases are paused")
	ErrUnsupportedCurrency    = errors.New("currency is not supported")
	ErrUnregisteredAsset      = errors.New("asset is not registered")
	ErrInvalidAssetOwnership  = errors.New("declared seller no longer owns the asset")
	ErrArithmeticOverflow     = errors.New("batch price arithmetic overflow")
	ErrTransferFailed         = errors.New("value transfer failed")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrIdempotencyConflict    = errors.New("idempotency key already used with different payload")
	ErrSettlementNotFound     = errors.New("settlement not found")
)

// CommissionTransferIndex marks the commission leg in a TransferError;
// batch items use their zero-based position.
const CommissionTransferIndex = -1

// TransferError wraps a ledger failure with the failing leg for diagnosis.
// It matches ErrTransferFailed under errors.Is.
type TransferError struct {
	ItemIndex int
	From      string
	To        string
	Amount    uint64
	Err       error
}

func (e *TransferError) Error() string {
	if e.ItemIndex == CommissionTransferIndex {
		return fmt.Sprintf("value transfer failed on commission leg (%s -> %s, amount %d): %v", e.From, e.To, e.Amount, e.Err)
	}
	return fmt.Sprintf("value transfer failed on item %d (%s -> %s, amount %d): %v", e.ItemIndex, e.From, e.To, e.Amount, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Is(target error) bool { return target == ErrTransferFailed }
