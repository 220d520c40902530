package pebbledb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/cockroachdb/pebble"
	"github.com/qubic/go-tx-engine/entities"
	"github.com/shopspring/decimal"
	"os"
)

const (
	txAmountKey  = 0x00
	txDisputeKey = 0x01
)

// TxIndex stores the transaction history and the dispute status of
// transactions in a pebble database. Every index lives in its own folder that
// is removed on Close, nothing is kept across runs.
type TxIndex struct {
	db  *pebble.DB
	dir string
}

func NewTxIndex(storeDir string) (*TxIndex, error) {
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store folder: %v", err)
	}
	dir, err := os.MkdirTemp(storeDir, "tx-index-")
	if err != nil {
		return nil, fmt.Errorf("creating index folder: %v", err)
	}

	db, err := pebble.Open(dir, &pebble.Options{DisableWAL: true})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("opening pebble db: %v", err)
	}

	return &TxIndex{db: db, dir: dir}, nil
}

func txKey(prefix byte, tx entities.TxID) []byte {
	key := []byte{prefix}
	return binary.BigEndian.AppendUint32(key, uint32(tx))
}

func (ti *TxIndex) RecordAmount(tx entities.TxID, amount decimal.Decimal) error {
	key := txKey(txAmountKey, tx)

	_, closer, err := ti.db.Get(key)
	if err == nil {
		return closer.Close()
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("checking amount of transaction %d: %v", tx, err)
	}

	value, err := amount.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding amount %s: %v", amount, err)
	}

	err = ti.db.Set(key, value, pebble.NoSync)
	if err != nil {
		return fmt.Errorf("setting amount of transaction %d: %v", tx, err)
	}

	return nil
}

func (ti *TxIndex) Amount(tx entities.TxID) (decimal.Decimal, error) {
	value, closer, err := ti.db.Get(txKey(txAmountKey, tx))
	if errors.Is(err, pebble.ErrNotFound) {
		return decimal.Zero, entities.ErrStoreEntityNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("getting amount of transaction %d: %v", tx, err)
	}
	defer closer.Close()

	var amount decimal.Decimal
	err = amount.UnmarshalBinary(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decoding amount of transaction %d: %v", tx, err)
	}

	return amount, nil
}

func (ti *TxIndex) Dispute(tx entities.TxID) (entities.TxDispute, error) {
	value, closer, err := ti.db.Get(txKey(txDisputeKey, tx))
	if errors.Is(err, pebble.ErrNotFound) {
		return entities.TxDispute{Status: entities.NotDisputed}, nil
	}
	if err != nil {
		return entities.TxDispute{}, fmt.Errorf("getting dispute of transaction %d: %v", tx, err)
	}
	defer closer.Close()

	dispute, err := decodeDispute(value)
	if err != nil {
		return entities.TxDispute{}, fmt.Errorf("decoding dispute of transaction %d: %v", tx, err)
	}

	return dispute, nil
}

func (ti *TxIndex) SetDispute(tx entities.TxID, dispute entities.TxDispute) error {
	key := txKey(txDisputeKey, tx)

	var err error
	if dispute.Status == entities.NotDisputed {
		err = ti.db.Delete(key, pebble.NoSync)
	} else {
		err = ti.db.Set(key, encodeDispute(dispute), pebble.NoSync)
	}
	if err != nil {
		return fmt.Errorf("setting dispute of transaction %d to %s: %v", tx, dispute.Status, err)
	}

	return nil
}

// value layout: status (1 byte) | client (big endian uint16)
func encodeDispute(dispute entities.TxDispute) []byte {
	value := []byte{byte(dispute.Status)}
	return binary.BigEndian.AppendUint16(value, uint16(dispute.Client))
}

func decodeDispute(value []byte) (entities.TxDispute, error) {
	if len(value) != 3 {
		return entities.TxDispute{}, fmt.Errorf("invalid value length %d: %x", len(value), value)
	}
	return entities.TxDispute{
		Status: entities.DisputeStatus(value[0]),
		Client: entities.ClientID(binary.BigEndian.Uint16(value[1:])),
	}, nil
}

// OpenDisputes returns the transactions currently under dispute.
func (ti *TxIndex) OpenDisputes() ([]entities.TxID, error) {
	iter, err := ti.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{txDisputeKey},
		UpperBound: []byte{txDisputeKey + 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating iterator: %v", err)
	}
	defer iter.Close()

	var open []entities.TxID
	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return nil, fmt.Errorf("getting value from iter: %v", err)
		}
		dispute, err := decodeDispute(value)
		if err != nil {
			return nil, fmt.Errorf("decoding dispute of key %x: %v", iter.Key(), err)
		}
		if dispute.Status == entities.Disputed {
			open = append(open, entities.TxID(binary.BigEndian.Uint32(iter.Key()[1:])))
		}
	}

	return open, nil
}

func (ti *TxIndex) Close() error {
	err := ti.db.Close()
	if rmErr := os.RemoveAll(ti.dir); rmErr != nil && err == nil {
		err = fmt.Errorf("removing index folder: %v", rmErr)
	}
	return err
}
