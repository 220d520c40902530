package entities

import (
	"errors"
	"fmt"
)

var ErrStoreEntityNotFound = errors.New("store resource not found")

var (
	ErrDepositMissingAmount    = errors.New("deposit missing amount")
	ErrWithdrawalMissingAmount = errors.New("withdrawal missing amount")
)

// MissingAmountError is returned for a deposit or withdrawal without an amount.
// It aborts the whole batch.
type MissingAmountError struct {
	Type RecordType
	Tx   TxID
}

func NewMissingAmountError(t RecordType, tx TxID) *MissingAmountError {
	return &MissingAmountError{Type: t, Tx: tx}
}

func (e *MissingAmountError) Error() string {
	return fmt.Sprintf("%s: transaction [%d]", e.Unwrap(), e.Tx)
}

func (e *MissingAmountError) Unwrap() error {
	if e.Type == Withdrawal {
		return ErrWithdrawalMissingAmount
	}
	return ErrDepositMissingAmount
}
