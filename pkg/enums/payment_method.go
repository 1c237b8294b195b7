package enums

import "fmt"

// PaymentMethod identifies how a payment settles.
type PaymentMethod string

const (
	PaymentMethodWallet PaymentMethod = "wallet"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodUPI    PaymentMethod = "upi"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodWallet,
	PaymentMethodCash,
	PaymentMethodOnline,
	PaymentMethodUPI,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresGateway reports whether the method settles through the payment-link provider.
func (p PaymentMethod) RequiresGateway() bool {
	return p == PaymentMethodOnline || p == PaymentMethodUPI
}

// WalletRefundable reports whether a refund for the method credits the wallet.
func (p PaymentMethod) WalletRefundable() bool {
	return p == PaymentMethodWallet || p == PaymentMethodOnline || p == PaymentMethodUPI
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
