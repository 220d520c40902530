package ledger

import (
	"github.com/qubic/go-tx-engine/entities"
	"github.com/shopspring/decimal"
	"slices"
)

// TxIndex keeps the transaction history and the dispute status of every
// transaction referenced by the dispute lifecycle.
type TxIndex interface {
	// RecordAmount stores the amount of a deposit or withdrawal. An existing
	// entry is never overwritten.
	RecordAmount(tx entities.TxID, amount decimal.Decimal) error
	// Amount returns entities.ErrStoreEntityNotFound for unknown transactions.
	Amount(tx entities.TxID) (decimal.Decimal, error)
	// Dispute returns a NotDisputed zero value for transactions never disputed.
	Dispute(tx entities.TxID) (entities.TxDispute, error)
	SetDispute(tx entities.TxID, dispute entities.TxDispute) error
	// OpenDisputes returns the transactions currently under dispute, ordered by id.
	OpenDisputes() ([]entities.TxID, error)
}

type MemoryIndex struct {
	amounts  map[entities.TxID]decimal.Decimal
	disputes map[entities.TxID]entities.TxDispute
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		amounts:  make(map[entities.TxID]decimal.Decimal),
		disputes: make(map[entities.TxID]entities.TxDispute),
	}
}

func (mi *MemoryIndex) RecordAmount(tx entities.TxID, amount decimal.Decimal) error {
	if _, ok := mi.amounts[tx]; !ok {
		mi.amounts[tx] = amount
	}
	return nil
}

func (mi *MemoryIndex) Amount(tx entities.TxID) (decimal.Decimal, error) {
	amount, ok := mi.amounts[tx]
	if !ok {
		return decimal.Zero, entities.ErrStoreEntityNotFound
	}
	return amount, nil
}

func (mi *MemoryIndex) Dispute(tx entities.TxID) (entities.TxDispute, error) {
	return mi.disputes[tx], nil
}

func (mi *MemoryIndex) SetDispute(tx entities.TxID, dispute entities.TxDispute) error {
	if dispute.Status == entities.NotDisputed {
		delete(mi.disputes, tx)
		return nil
	}
	mi.disputes[tx] = dispute
	return nil
}

func (mi *MemoryIndex) OpenDisputes() ([]entities.TxID, error) {
	var open []entities.TxID
	for tx, dispute := range mi.disputes {
		if dispute.Status == entities.Disputed {
			open = append(open, tx)
		}
	}
	slices.Sort(open)
	return open, nil
}
