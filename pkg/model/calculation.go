package model

import "time"

const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

// Calculation is one line of the temple donation ledger. Amounts are in
// whole rupees.
type Calculation struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	ReceiptNo string    `json:"receipt_no" bson:"receipt_no"`
	Type      string    `json:"type" bson:"type"`
	Category  string    `json:"category" bson:"category"`
	Amount    int64     `json:"amount" bson:"amount"`
	Name      string    `json:"name" bson:"name"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
	Date      time.Time `json:"date" bson:"date"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type CalculationInput struct {
	Type     string `json:"type" validate:"required,oneof=income expense"`
	Category string `json:"category" validate:"required,min=2,max=50"`
	Amount   int64  `json:"amount" validate:"required,gt=0,max=100000000"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
	Note     string `json:"note,omitempty" validate:"max=1000"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

type CalculationFilter struct {
	Type     string
	Category string
	From     *time.Time
	To       *time.Time
}

type CategoryTotal struct {
	Type     string `json:"type" bson:"type"`
	Category string `json:"category" bson:"category"`
	Total    int64  `json:"total" bson:"total"`
	Count    int64  `json:"count" bson:"count"`
}

type CalculationSummary struct {
	TotalIncome  int64           `json:"total_income"`
	TotalExpense int64           `json:"total_expense"`
	Balance      int64           `json:"balance"`
	ByCategory   []CategoryTotal `json:"by_category"`
}
