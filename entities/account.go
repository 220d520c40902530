package entities

import "github.com/shopspring/decimal"

// Amounts holds the funds of an account split into two buckets. The total is
// always derived from them and never stored.
type Amounts struct {
	// Available funds can be used by the client.
	Available decimal.Decimal
	// Held funds are blocked by open disputes.
	Held decimal.Decimal
}

func (a *Amounts) Deposit(amount decimal.Decimal) {
	a.Available = a.Available.Add(amount)
}

// Withdraw decreases the available funds. It is a no-op returning false if
// there are not enough funds available.
func (a *Amounts) Withdraw(amount decimal.Decimal) bool {
	if a.Available.LessThan(amount) {
		return false
	}
	a.Available = a.Available.Sub(amount)
	return true
}

// Hold moves funds from available to held.
func (a *Amounts) Hold(amount decimal.Decimal) {
	a.Available = a.Available.Sub(amount)
	a.Held = a.Held.Add(amount)
}

// Release moves funds from held back to available.
func (a *Amounts) Release(amount decimal.Decimal) {
	a.Held = a.Held.Sub(amount)
	a.Available = a.Available.Add(amount)
}

// Chargeback removes held funds from the account.
func (a *Amounts) Chargeback(amount decimal.Decimal) {
	a.Held = a.Held.Sub(amount)
}

func (a Amounts) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

type Account struct {
	Client  ClientID
	Amounts Amounts
	// Locked is set once a chargeback completed and never reset.
	Locked bool
}

func NewAccount(client ClientID) *Account {
	return &Account{Client: client}
}

// AccountState is the published form of an account. The total is computed when
// the state is created.
type AccountState struct {
	Client    ClientID        `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}

func (a Account) State() AccountState {
	return AccountState{
		Client:    a.Client,
		Available: a.Amounts.Available,
		Held:      a.Amounts.Held,
		Total:     a.Amounts.Total(),
		Locked:    a.Locked,
	}
}
