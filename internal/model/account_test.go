package model

import "testing"

func TestNewAccount(t *testing.T) {
	a := NewAccount("09876543210", "Jon Olav Nilsen", 9000.99)

	if a.Number != "09876543210" || a.Name != "Jon Olav Nilsen" || a.Balance != 9000.99 {
		t.Fatalf("unexpected account fields: %+v", *a)
	}
}

func TestAccountZeroValueIsBlank(t *testing.T) {
	var a Account
	if a.Number != "" || a.Name != "" || a.Balance != 0 {
		t.Fatalf("expected blank account, got %+v", a)
	}

	a.Number = "12345012345"
	a.Name = "Nils Olav Johnsen"
	a.Balance = -10
	if a.Balance != -10 {
		t.Fatalf("expected negative balance to be accepted, got %v", a.Balance)
	}
}

func TestAccountString(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    string
	}{
		{
			name:    "full record",
			account: Account{Number: "12345012345", Name: "Nils Olav Johnsen", Balance: 2049.36},
			want:    "Number: 12345012345\nName: Nils Olav Johnsen\nBalance: 2049.36",
		},
		{
			name:    "whole balance",
			account: Account{Number: "019283746574", Name: "Jon Olav Nilsen", Balance: 8000},
			want:    "Number: 019283746574\nName: Jon Olav Nilsen\nBalance: 8000",
		},
		{
			name:    "blank record",
			account: Account{},
			want:    "Number: \nName: \nBalance: 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
