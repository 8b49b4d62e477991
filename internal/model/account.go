// Package model holds the plain data records persisted by the repositories.
//
// Records here carry no behavior beyond rendering. They do not validate
// themselves: a negative balance or an empty number is accepted at this
// layer and rejected, if at all, by the layer that stores it.
package model

import (
	"fmt"
	"strconv"
)

// Account is the single persisted entity: an account number, the owner's
// display name and the balance.
//
// The zero value is the blank record; fill it by assigning fields.
// Number is the identity key and must not change once stored.
type Account struct {
	Number  string  `json:"number"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// NewAccount builds a fully populated account.
func NewAccount(number, name string, balance float64) *Account {
	return &Account{
		Number:  number,
		Name:    name,
		Balance: balance,
	}
}

// String renders the account on three lines for diagnostics.
// It is not a serialization format.
func (a Account) String() string {
	return fmt.Sprintf("Number: %s\nName: %s\nBalance: %s",
		a.Number,
		a.Name,
		strconv.FormatFloat(a.Balance, 'f', -1, 64),
	)
}
