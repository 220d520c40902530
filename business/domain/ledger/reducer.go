package ledger

import (
	"github.com/pkg/errors"
	"github.com/qubic/go-tx-engine/entities"
	"github.com/shopspring/decimal"
	"slices"
)

// Reducer folds transaction records, in input order, into account states.
// It is not safe for concurrent use.
type Reducer struct {
	accounts map[entities.ClientID]*entities.Account
	index    TxIndex
	observer Observer
}

func NewReducer(index TxIndex, observer Observer) *Reducer {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Reducer{
		accounts: make(map[entities.ClientID]*entities.Account),
		index:    index,
		observer: observer,
	}
}

// Apply consumes one record. Only a deposit or withdrawal without an amount and
// failures of the index are reported as errors; every other invalid record is
// skipped and reported to the observer.
func (r *Reducer) Apply(record entities.Record) error {
	account := r.account(record.Client)

	switch record.Type {
	case entities.Deposit:
		return r.deposit(account, record)
	case entities.Withdrawal:
		return r.withdraw(account, record)
	case entities.Dispute:
		return r.dispute(account, record)
	case entities.Resolve:
		return r.resolve(account, record)
	case entities.Chargeback:
		return r.chargeback(account, record)
	default:
		return errors.Errorf("unsupported record type [%s] in transaction [%d]", record.Type, record.Tx)
	}
}

func (r *Reducer) account(client entities.ClientID) *entities.Account {
	account, ok := r.accounts[client]
	if !ok {
		account = entities.NewAccount(client)
		r.accounts[client] = account
		r.observer.AccountOpened(client)
	}
	return account
}

func (r *Reducer) deposit(account *entities.Account, record entities.Record) error {
	if !record.Amount.Valid {
		return entities.NewMissingAmountError(entities.Deposit, record.Tx)
	}
	amount := record.Amount.Decimal

	account.Amounts.Deposit(amount)
	if err := r.index.RecordAmount(record.Tx, amount); err != nil {
		return errors.Wrapf(err, "recording amount of transaction [%d]", record.Tx)
	}
	r.observer.Applied(record, *account)
	return nil
}

func (r *Reducer) withdraw(account *entities.Account, record entities.Record) error {
	if !record.Amount.Valid {
		return entities.NewMissingAmountError(entities.Withdrawal, record.Tx)
	}
	amount := record.Amount.Decimal

	if !account.Amounts.Withdraw(amount) {
		r.observer.Skipped(record, ReasonInsufficientFunds)
		return nil
	}
	if err := r.index.RecordAmount(record.Tx, amount); err != nil {
		return errors.Wrapf(err, "recording amount of transaction [%d]", record.Tx)
	}
	r.observer.Applied(record, *account)
	return nil
}

func (r *Reducer) dispute(account *entities.Account, record entities.Record) error {
	amount, dispute, found, err := r.lookup(record.Tx)
	if err != nil {
		return err
	}
	if !found {
		r.observer.Skipped(record, ReasonUnknownTransaction)
		return nil
	}
	switch dispute.Status {
	case entities.Disputed:
		r.observer.Skipped(record, ReasonAlreadyDisputed)
		return nil
	case entities.ChargedBack:
		r.observer.Skipped(record, ReasonChargedBack)
		return nil
	}

	account.Amounts.Hold(amount)
	if err := r.index.SetDispute(record.Tx, entities.TxDispute{Status: entities.Disputed, Client: record.Client}); err != nil {
		return errors.Wrapf(err, "opening dispute of transaction [%d]", record.Tx)
	}
	r.observer.Applied(record, *account)
	return nil
}

func (r *Reducer) resolve(account *entities.Account, record entities.Record) error {
	amount, ok, err := r.openDispute(record)
	if err != nil || !ok {
		return err
	}

	account.Amounts.Release(amount)
	if err := r.index.SetDispute(record.Tx, entities.TxDispute{Status: entities.NotDisputed}); err != nil {
		return errors.Wrapf(err, "resolving dispute of transaction [%d]", record.Tx)
	}
	r.observer.Applied(record, *account)
	return nil
}

func (r *Reducer) chargeback(account *entities.Account, record entities.Record) error {
	amount, ok, err := r.openDispute(record)
	if err != nil || !ok {
		return err
	}

	account.Amounts.Chargeback(amount)
	account.Locked = true
	if err := r.index.SetDispute(record.Tx, entities.TxDispute{Status: entities.ChargedBack, Client: record.Client}); err != nil {
		return errors.Wrapf(err, "charging back transaction [%d]", record.Tx)
	}
	r.observer.Applied(record, *account)
	return nil
}

// openDispute returns the disputed amount if the referenced transaction is
// known and under a dispute opened by the client of the record. Otherwise the
// record is reported as skipped.
func (r *Reducer) openDispute(record entities.Record) (decimal.Decimal, bool, error) {
	amount, dispute, found, err := r.lookup(record.Tx)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !found {
		r.observer.Skipped(record, ReasonUnknownTransaction)
		return decimal.Zero, false, nil
	}
	if dispute.Status != entities.Disputed {
		r.observer.Skipped(record, ReasonNotDisputed)
		return decimal.Zero, false, nil
	}
	// the funds are held on the account that opened the dispute
	if dispute.Client != record.Client {
		r.observer.Skipped(record, ReasonClientMismatch)
		return decimal.Zero, false, nil
	}
	return amount, true, nil
}

func (r *Reducer) lookup(tx entities.TxID) (decimal.Decimal, entities.TxDispute, bool, error) {
	amount, err := r.index.Amount(tx)
	if errors.Is(err, entities.ErrStoreEntityNotFound) {
		return decimal.Zero, entities.TxDispute{}, false, nil
	}
	if err != nil {
		return decimal.Zero, entities.TxDispute{}, false, errors.Wrapf(err, "getting amount of transaction [%d]", tx)
	}

	dispute, err := r.index.Dispute(tx)
	if err != nil {
		return decimal.Zero, entities.TxDispute{}, false, errors.Wrapf(err, "getting dispute of transaction [%d]", tx)
	}
	return amount, dispute, true, nil
}

// OpenDisputes returns the transactions currently under dispute.
func (r *Reducer) OpenDisputes() ([]entities.TxID, error) {
	open, err := r.index.OpenDisputes()
	if err != nil {
		return nil, errors.Wrap(err, "listing open disputes")
	}
	return open, nil
}

// Accounts returns a copy of the current account states.
func (r *Reducer) Accounts() map[entities.ClientID]entities.Account {
	accounts := make(map[entities.ClientID]entities.Account, len(r.accounts))
	for client, account := range r.accounts {
		accounts[client] = *account
	}
	return accounts
}

// Snapshot returns the current account states ordered by client.
func (r *Reducer) Snapshot() []entities.Account {
	return sortedAccounts(r.Accounts())
}

func sortedAccounts(accounts map[entities.ClientID]entities.Account) []entities.Account {
	sorted := make([]entities.Account, 0, len(accounts))
	for _, account := range accounts {
		sorted = append(sorted, account)
	}
	slices.SortFunc(sorted, func(a, b entities.Account) int {
		return int(a.Client) - int(b.Client)
	})
	return sorted
}

// Process folds all records starting from an empty ledger. No accounts are
// returned if a record cannot be applied.
func Process(records []entities.Record, observer Observer) (map[entities.ClientID]entities.Account, error) {
	reducer := NewReducer(NewMemoryIndex(), observer)
	for _, record := range records {
		if err := reducer.Apply(record); err != nil {
			return nil, err
		}
	}
	return reducer.Accounts(), nil
}
