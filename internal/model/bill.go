package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Gateway status codes as delivered in the callback payload.
const (
	GatewayStatusSuccess = 1
	GatewayStatusPending = 2
	GatewayStatusFailed  = 3
)

// PaymentStatusFromGatewayCode maps the gateway's numeric status to the
// stored status. Unknown codes resolve to ErrUnknownStatus.
func PaymentStatusFromGatewayCode(code int) (PaymentStatus, error) {
	switch code {
	case GatewayStatusSuccess:
		return PaymentStatusSuccess, nil
	case GatewayStatusPending:
		return PaymentStatusPending, nil
	case GatewayStatusFailed:
		return PaymentStatusFailed, nil
	default:
		return "", fmt.Errorf("gateway status code %d: %w", code, ErrUnknownStatus)
	}
}

// IsTerminal reports whether the status is final and non-reversible.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

type Bill struct {
	// Gateway-assigned opaque identifier, primary key of the store.
	BillCode string
	// Caller-generated, time-based reference handed to the gateway.
	ExternalReferenceNo string
	// Amount in minor units (sen).
	AmountCents int64
	PayorName   string
	PayorEmail  string
	PayorPhone  string
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateBillParams struct {
	FullName string
	Email    string
	Phone    string
	Amount   decimal.Decimal
	// AmountSet distinguishes an absent amount from a literal zero.
	AmountSet bool
}

// Validate checks field presence only. Email/phone shape and amount
// positivity are deliberately not enforced here.
func (p CreateBillParams) Validate() error {
	switch {
	case p.FullName == "":
		return fmt.Errorf("fullName is required: %w", ErrValidation)
	case p.Email == "":
		return fmt.Errorf("email is required: %w", ErrValidation)
	case p.Phone == "":
		return fmt.Errorf("phone is required: %w", ErrValidation)
	case !p.AmountSet:
		return fmt.Errorf("amount is required: %w", ErrValidation)
	}
	return nil
}

// AmountCents converts the decimal amount to integer minor units,
// rounding half away from zero. Decimal arithmetic keeps inputs like
// 19.99 exact.
func (p CreateBillParams) AmountCents() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type CreateBillResult struct {
	BillCode string
}

// PaymentCallback is the gateway's asynchronous notification. Delivery
// is at-least-once; the same callback may arrive any number of times.
type PaymentCallback struct {
	BillCode   string
	StatusCode int
	RefNo      string
	Reason     string
}

// PaymentUpdate is published downstream after a bill reaches a terminal
// status.
type PaymentUpdate struct {
	BillCode            string
	ExternalReferenceNo string
	Status              PaymentStatus
	AmountCents         int64
	OccurredAt          time.Time
}
