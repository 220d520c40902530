package entities

import (
	"fmt"
	"github.com/shopspring/decimal"
	"strings"
)

type ClientID uint16

type TxID uint32

// RecordType identifies the kind of transaction record.
type RecordType uint8

const (
	Deposit RecordType = iota + 1
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

var recordTypeNames = map[RecordType]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Dispute:    "dispute",
	Resolve:    "resolve",
	Chargeback: "chargeback",
}

func (t RecordType) String() string {
	if name, ok := recordTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ParseRecordType maps the lowercase wire name of a record type to its value.
func ParseRecordType(s string) (RecordType, error) {
	for t, name := range recordTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown record type %q", s)
}

// Record is a single entry of the input stream. Only deposits and withdrawals
// carry an amount, the dispute lifecycle records reference an earlier transaction.
type Record struct {
	Type   RecordType
	Client ClientID
	Tx     TxID
	Amount decimal.NullDecimal
}

func NewDeposit(client ClientID, tx TxID, amount decimal.Decimal) Record {
	return Record{Type: Deposit, Client: client, Tx: tx, Amount: decimal.NewNullDecimal(amount)}
}

func NewWithdrawal(client ClientID, tx TxID, amount decimal.Decimal) Record {
	return Record{Type: Withdrawal, Client: client, Tx: tx, Amount: decimal.NewNullDecimal(amount)}
}

func NewDispute(client ClientID, tx TxID) Record {
	return Record{Type: Dispute, Client: client, Tx: tx}
}

func NewResolve(client ClientID, tx TxID) Record {
	return Record{Type: Resolve, Client: client, Tx: tx}
}

func NewChargeback(client ClientID, tx TxID) Record {
	return Record{Type: Chargeback, Client: client, Tx: tx}
}

// DisputeStatus is the position of a single transaction in the dispute lifecycle.
type DisputeStatus uint8

const (
	NotDisputed DisputeStatus = iota
	Disputed
	ChargedBack // terminal
)

func (s DisputeStatus) String() string {
	switch s {
	case NotDisputed:
		return "not disputed"
	case Disputed:
		return "disputed"
	case ChargedBack:
		return "charged back"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// TxDispute is the dispute status of a transaction together with the client
// whose dispute record moved it there.
type TxDispute struct {
	Status DisputeStatus
	Client ClientID
}
