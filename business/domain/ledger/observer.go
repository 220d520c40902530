package ledger

import (
	"github.com/qubic/go-tx-engine/entities"
	"go.uber.org/zap"
)

type SkipReason string

const (
	ReasonInsufficientFunds  SkipReason = "insufficient_funds"
	ReasonUnknownTransaction SkipReason = "unknown_transaction"
	ReasonNotDisputed        SkipReason = "not_disputed"
	ReasonAlreadyDisputed    SkipReason = "already_disputed"
	ReasonChargedBack        SkipReason = "charged_back"
	ReasonClientMismatch     SkipReason = "client_mismatch"
)

// Observer is notified about everything the reducer does. Skipped records never
// change the ledger and are only visible through this hook.
type Observer interface {
	AccountOpened(client entities.ClientID)
	Applied(record entities.Record, account entities.Account)
	Skipped(record entities.Record, reason SkipReason)
}

type NopObserver struct{}

func (NopObserver) AccountOpened(entities.ClientID) {}

func (NopObserver) Applied(entities.Record, entities.Account) {}

func (NopObserver) Skipped(entities.Record, SkipReason) {}

// Observers fans out every notification to all of its elements.
type Observers []Observer

func (o Observers) AccountOpened(client entities.ClientID) {
	for _, observer := range o {
		observer.AccountOpened(client)
	}
}

func (o Observers) Applied(record entities.Record, account entities.Account) {
	for _, observer := range o {
		observer.Applied(record, account)
	}
}

func (o Observers) Skipped(record entities.Record, reason SkipReason) {
	for _, observer := range o {
		observer.Skipped(record, reason)
	}
}

type LogObserver struct {
	logger *zap.SugaredLogger
}

func NewLogObserver(logger *zap.SugaredLogger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (lo *LogObserver) AccountOpened(client entities.ClientID) {
	lo.logger.Debugw("Opened account", "client", client)
}

func (lo *LogObserver) Applied(record entities.Record, account entities.Account) {
	lo.logger.Debugw("Applied record", "type", record.Type, "client", record.Client, "tx", record.Tx,
		"available", account.Amounts.Available, "held", account.Amounts.Held, "locked", account.Locked)
}

func (lo *LogObserver) Skipped(record entities.Record, reason SkipReason) {
	lo.logger.Infow("Skipped record", "type", record.Type, "client", record.Client, "tx", record.Tx, "reason", reason)
}
