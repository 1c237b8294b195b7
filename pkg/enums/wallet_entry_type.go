package enums

import "fmt"

// WalletEntryType distinguishes the two sides of the wallet ledger.
type WalletEntryType string

const (
	WalletEntryCredit WalletEntryType = "credit"
	WalletEntryDebit  WalletEntryType = "debit"
)

var validWalletEntryTypes = []WalletEntryType{
	WalletEntryCredit,
	WalletEntryDebit,
}

// String implements fmt.Stringer.
func (w WalletEntryType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletEntryType.
func (w WalletEntryType) IsValid() bool {
	for _, candidate := range validWalletEntryTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletEntryType converts raw input into a WalletEntryType.
func ParseWalletEntryType(value string) (WalletEntryType, error) {
	for _, candidate := range validWalletEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry type %q", value)
}
