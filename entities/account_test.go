package entities

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestAmounts_WithdrawOk(t *testing.T) {
	var a Amounts
	a.Deposit(decimal.NewFromInt(2))
	require.True(t, a.Withdraw(decimal.NewFromInt(1)))
	assert.True(t, a.Available.Equal(decimal.NewFromInt(1)))
	assert.True(t, a.Held.IsZero())
}

func TestAmounts_WithdrawFailed(t *testing.T) {
	var a Amounts
	a.Deposit(decimal.NewFromInt(1))
	require.False(t, a.Withdraw(decimal.NewFromInt(2)))
	assert.True(t, a.Available.Equal(decimal.NewFromInt(1)))
	assert.True(t, a.Held.IsZero())
}

func TestAmounts_WithdrawEverything(t *testing.T) {
	var a Amounts
	a.Deposit(decimal.RequireFromString("1.0001"))
	require.True(t, a.Withdraw(decimal.RequireFromString("1.0001")))
	assert.True(t, a.Available.IsZero())
}

func TestAmounts_DisputeLifecycle(t *testing.T) {
	var a Amounts
	a.Deposit(decimal.RequireFromString("10.5"))

	a.Hold(decimal.RequireFromString("4.25"))
	assert.Equal(t, "6.25", a.Available.String())
	assert.Equal(t, "4.25", a.Held.String())
	assert.Equal(t, "10.5", a.Total().String())

	a.Release(decimal.RequireFromString("4.25"))
	assert.Equal(t, "10.5", a.Available.String())
	assert.True(t, a.Held.IsZero())

	a.Hold(decimal.RequireFromString("10.5"))
	a.Chargeback(decimal.RequireFromString("10.5"))
	assert.True(t, a.Available.IsZero())
	assert.True(t, a.Held.IsZero())
	assert.True(t, a.Total().IsZero())
}

func TestAccount_State(t *testing.T) {
	account := NewAccount(3)
	account.Amounts.Deposit(decimal.RequireFromString("2"))
	account.Amounts.Hold(decimal.RequireFromString("0.5"))
	account.Locked = true

	state := account.State()
	assert.Equal(t, ClientID(3), state.Client)
	assert.Equal(t, "1.5", state.Available.String())
	assert.Equal(t, "0.5", state.Held.String())
	assert.Equal(t, "2", state.Total.String())
	assert.True(t, state.Locked)
}
