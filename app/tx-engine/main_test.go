package main

import (
	"github.com/qubic/go-tx-engine/entities"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

func TestNewTxIndex(t *testing.T) {
	dir, err := os.MkdirTemp("", "tx_engine_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, backend := range []string{"memory", "pebble"} {
		t.Run(backend, func(t *testing.T) {
			index, err := newTxIndex(backend, dir)
			require.NoError(t, err)
			defer index.Close()

			require.NoError(t, index.RecordAmount(1, decimal.RequireFromString("2.5")))
			got, err := index.Amount(1)
			require.NoError(t, err)
			require.Equal(t, "2.5", got.String())

			_, err = index.Amount(2)
			require.ErrorIs(t, err, entities.ErrStoreEntityNotFound)

			dispute := entities.TxDispute{Status: entities.Disputed, Client: 7}
			require.NoError(t, index.SetDispute(1, dispute))
			gotDispute, err := index.Dispute(1)
			require.NoError(t, err)
			require.Equal(t, dispute, gotDispute)

			open, err := index.OpenDisputes()
			require.NoError(t, err)
			require.Equal(t, []entities.TxID{1}, open)
		})
	}
}

func TestNewTxIndex_UnknownBackend(t *testing.T) {
	_, err := newTxIndex("redis", "")
	require.ErrorContains(t, err, "unknown store backend [redis]")
}
