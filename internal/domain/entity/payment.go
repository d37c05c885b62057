package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment method constants
const (
	PaymentMethodBankTransfer = "BANK_TRANSFER"
	PaymentMethodCreditCard   = "CREDIT_CARD"
	PaymentMethodCash         = "CASH"
	PaymentMethodOnline       = "ONLINE"
)

// Payment status constants
const (
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusRefunded  = "REFUNDED"
)

var validPaymentMethods = map[string]bool{
	PaymentMethodBankTransfer: true,
	PaymentMethodCreditCard:   true,
	PaymentMethodCash:         true,
	PaymentMethodOnline:       true,
}

// IsValidPaymentMethod returns true for a recognized payment method
func IsValidPaymentMethod(method string) bool {
	return validPaymentMethods[method]
}

// Payment is a registration fee payment recorded against an application.
// The Finance subsystem owns payment semantics; the workflow only creates
// records and sums completed amounts toward the registration fee.
type Payment struct {
	ID            int64           `json:"id"`
	ApplicationID int64           `json:"application_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Status        string          `json:"status"`
	BankName      string          `json:"bank_name,omitempty"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	ReceiptPath   string          `json:"receipt_path,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	PaidAt        time.Time       `json:"paid_at"`
	VerifiedBy    *int64          `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time      `json:"verified_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// GenerateTransactionID produces a unique ledger reference for a payment
func GenerateTransactionID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("PAY-%s-%s", time.Now().Format("20060102150405"), hex.EncodeToString(buf))
}
