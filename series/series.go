// Package series turns flat transaction lists into chart input.
//
// Aggregate keeps only the most recent calendar month present in the data
// and emits one bucket per day of that month, ascending. It is pure: no
// state, no errors, malformed records are skipped.
package series

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unkn0wn-root/fincache/model"
)

// Bucket is one chart point: every transaction of a single day.
type Bucket struct {
	DateKey     string              `json:"date"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	Items       []model.Transaction `json:"items"` // amount descending
	Label       string              `json:"month"`
}

// Aggregate groups txs into daily buckets for the latest (year, month) found
// in the input. Transactions without a valid date are ignored.
func Aggregate(txs []model.Transaction) []Bucket {
	dated := make([]model.Transaction, 0, len(txs))
	var latest model.Date
	for _, tx := range txs {
		if !tx.Date.Valid() {
			continue
		}
		dated = append(dated, tx)
		if !latest.Valid() || tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	if len(dated) == 0 {
		return []Bucket{}
	}

	byDay := make(map[int]*Bucket)
	for _, tx := range dated {
		if !tx.Date.SameMonth(latest) {
			continue
		}
		b, ok := byDay[tx.Date.Day]
		if !ok {
			b = &Bucket{
				DateKey:     tx.Date.String(),
				TotalAmount: decimal.Zero,
				Label:       Label(tx.Date),
			}
			byDay[tx.Date.Day] = b
		}
		b.TotalAmount = b.TotalAmount.Add(tx.Amount)
		b.Items = append(b.Items, tx)
	}

	out := make([]Bucket, 0, len(byDay))
	for _, b := range byDay {
		sort.SliceStable(b.Items, func(i, j int) bool {
			return b.Items[i].Amount.GreaterThan(b.Items[j].Amount)
		})
		out = append(out, *b)
	}
	// DateKey is zero-padded, so string order is date order within a month.
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out
}

// Label renders a day as "3rd Jan".
func Label(d model.Date) string {
	return fmt.Sprintf("%d%s %s", d.Day, Ordinal(d.Day), shortMonth(d.Month))
}

// Ordinal returns the English suffix for a day of the month.
func Ordinal(n int) string {
	if r := n % 100; r >= 11 && r <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

func shortMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return m.String()[:3]
}
