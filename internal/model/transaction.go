package model

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Family identifies the payment channel a transaction came from.
type Family string

const (
	FamilyEFT     Family = "EFT"
	FamilyEasypay Family = "Easypay"
)

// Transaction model discriminators stored on AllocationRequest.TransactionModel.
const (
	ModelEftTransaction     = "EftTransaction"
	ModelEasypayTransaction = "EasypayTransaction"
)

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	return f == FamilyEFT || f == FamilyEasypay
}

// Model returns the discriminator stored for transactions of this family.
func (f Family) Model() string {
	if f == FamilyEasypay {
		return ModelEasypayTransaction
	}
	return ModelEftTransaction
}

// FamilyForModel maps a transaction_model discriminator back to its family.
func FamilyForModel(m string) (Family, bool) {
	switch m {
	case ModelEftTransaction:
		return FamilyEFT, true
	case ModelEasypayTransaction:
		return FamilyEasypay, true
	}
	return "", false
}

// ParseFamily accepts the common spellings used by the portal ("eft", "easypay", "EasyPay").
func ParseFamily(s string) (Family, bool) {
	switch s {
	case "EFT", "eft", "Eft":
		return FamilyEFT, true
	case "Easypay", "easypay", "EasyPay", "EASYPAY":
		return FamilyEasypay, true
	}
	return "", false
}

// Transaction is the sum type over the two upstream transaction documents.
// Only *EftTransaction and *EasypayTransaction implement it.
type Transaction interface {
	TransactionID() string
	Family() Family
	PostedAt() time.Time
	AmountValue() decimal.Decimal
	isTransaction()
}

// EftTransaction is a bank statement line imported into the eft_transactions collection.
type EftTransaction struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Date        time.Time          `bson:"date" json:"date"`
	Amount      float64            `bson:"amount" json:"amount"`
	Reference   string             `bson:"reference,omitempty" json:"reference,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

func (t *EftTransaction) TransactionID() string        { return t.ID.Hex() }
func (t *EftTransaction) Family() Family               { return FamilyEFT }
func (t *EftTransaction) PostedAt() time.Time          { return t.Date }
func (t *EftTransaction) AmountValue() decimal.Decimal { return decimal.NewFromFloat(t.Amount) }
func (t *EftTransaction) isTransaction()               {}

// EasypayTransaction is a retail payment imported into the easypay_transactions collection.
type EasypayTransaction struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Date          time.Time          `bson:"date" json:"date"`
	Amount        float64            `bson:"amount" json:"amount"`
	EasypayNumber string             `bson:"easypayNumber,omitempty" json:"easypay_number,omitempty"`
	Reference     string             `bson:"reference,omitempty" json:"reference,omitempty"`
}

func (t *EasypayTransaction) TransactionID() string        { return t.ID.Hex() }
func (t *EasypayTransaction) Family() Family               { return FamilyEasypay }
func (t *EasypayTransaction) PostedAt() time.Time          { return t.Date }
func (t *EasypayTransaction) AmountValue() decimal.Decimal { return decimal.NewFromFloat(t.Amount) }
func (t *EasypayTransaction) isTransaction()               {}

// Policy is the subset of the policies collection this service reads.
type Policy struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	PolicyNumber string             `bson:"policyNumber" json:"policy_number"`
	MembershipID string             `bson:"membershipId,omitempty" json:"membership_id,omitempty"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`
}
