// Package model holds the finance records exchanged with the backend and kept
// in the client cache.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind separates income records from expense records.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool { return k == KindIncome || k == KindExpense }

func (k Kind) String() string { return string(k) }

// Transaction is a server-owned income or expense record.
type Transaction struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Date            `json:"date"`
	Icon       *string         `json:"icon,omitempty"`
	CategoryID int64           `json:"categoryId"`
	Type       Kind            `json:"type,omitempty"`
}

// IconOr returns the icon or def when the record has none.
func (t Transaction) IconOr(def string) string {
	if t.Icon == nil || strings.TrimSpace(*t.Icon) == "" {
		return def
	}
	return *t.Icon
}

// TransactionInput is what a caller submits to create or edit a transaction.
// Icon may be blank; the client then resolves it from the category.
type TransactionInput struct {
	Name       string
	Amount     decimal.Decimal
	Date       Date
	Icon       string
	CategoryID int64
}

// TransactionPayload is the request body for POST/PUT on incomes and expenses.
type TransactionPayload struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Date            `json:"date"`
	Icon       *string         `json:"icon"`
	CategoryID int64           `json:"categoryId"`
}

// Category groups transactions of one kind. Names are unique per kind,
// ignoring case.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type Kind   `json:"type"`
	Icon string `json:"icon,omitempty"`
}

type CategoryInput struct {
	Name string `json:"name"`
	Type Kind   `json:"type"`
	Icon string `json:"icon"`
}

// Dashboard is the server-side aggregate shown on the home page.
type Dashboard struct {
	TotalBalance       decimal.Decimal `json:"totalBalance"`
	TotalIncome        decimal.Decimal `json:"totalIncome"`
	TotalExpense       decimal.Decimal `json:"totalExpense"`
	RecentTransactions []Transaction   `json:"recentTransactions"`
	Recent5Expenses    []Transaction   `json:"recent5Expenses"`
	Recent5Incomes     []Transaction   `json:"recent5Incomes"`
}

// Normalize replaces absent lists with empty ones so a new user's dashboard
// renders the same as one with data.
func (d Dashboard) Normalize() Dashboard {
	if d.RecentTransactions == nil {
		d.RecentTransactions = []Transaction{}
	}
	if d.Recent5Expenses == nil {
		d.Recent5Expenses = []Transaction{}
	}
	if d.Recent5Incomes == nil {
		d.Recent5Incomes = []Transaction{}
	}
	return d
}

// FilterRequest is the body of POST /filter.
type FilterRequest struct {
	Type      Kind   `json:"type"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
	Keyword   string `json:"keyword"`
	SortField string `json:"sortField"`
	SortOrder string `json:"sortOrder"`
}

type User struct {
	ID              int64  `json:"id"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
