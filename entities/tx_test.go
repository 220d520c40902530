package entities

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseRecordType(t *testing.T) {
	for _, recordType := range []RecordType{Deposit, Withdrawal, Dispute, Resolve, Chargeback} {
		parsed, err := ParseRecordType(recordType.String())
		require.NoError(t, err)
		assert.Equal(t, recordType, parsed)
	}

	parsed, err := ParseRecordType("ChargeBack")
	require.NoError(t, err)
	assert.Equal(t, Chargeback, parsed)

	_, err = ParseRecordType("transfer")
	require.Error(t, err)
	assert.Equal(t, "unknown(9)", RecordType(9).String())
}

func TestMissingAmountError(t *testing.T) {
	err := errors.Wrap(NewMissingAmountError(Withdrawal, 12), "processing")
	assert.ErrorIs(t, err, ErrWithdrawalMissingAmount)
	assert.NotErrorIs(t, err, ErrDepositMissingAmount)
	assert.Equal(t, "processing: withdrawal missing amount: transaction [12]", err.Error())

	var missing *MissingAmountError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, TxID(12), missing.Tx)

	assert.ErrorIs(t, NewMissingAmountError(Deposit, 1), ErrDepositMissingAmount)
}
