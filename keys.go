package fincache

import "github.com/unkn0wn-root/fincache/model"

// Key names one cached resource.
type Key string

const (
	KeyDashboard  Key = "dashboard"
	KeyCategories Key = "categories"
	KeyIncomes    Key = "incomes"
	KeyExpenses   Key = "expenses"
)

// Keys lists every resource in a stable order.
var Keys = []Key{KeyDashboard, KeyCategories, KeyIncomes, KeyExpenses}

func (k Key) String() string { return string(k) }

// Valid reports whether k is one of the four resource keys.
func (k Key) Valid() bool {
	switch k {
	case KeyDashboard, KeyCategories, KeyIncomes, KeyExpenses:
		return true
	}
	return false
}

// ttlGoverned reports whether freshness expires with time. Other resources
// stay fresh until invalidated.
func (k Key) ttlGoverned() bool {
	return k == KeyIncomes || k == KeyExpenses
}

// KeyFor maps a transaction kind to the list resource holding it.
func KeyFor(kind model.Kind) (Key, bool) {
	switch kind {
	case model.KindIncome:
		return KeyIncomes, true
	case model.KindExpense:
		return KeyExpenses, true
	}
	return "", false
}
