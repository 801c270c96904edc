package fincache

import (
	"context"
	"strings"

	"github.com/unkn0wn-root/fincache/model"
)

func normalizeCategory(in model.CategoryInput) model.CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Icon = strings.TrimSpace(in.Icon)
	return in
}

// checkCategory rejects a blank name, an unknown type, or a name already used
// by another cached category of either type (case-insensitive). editingID
// excludes the record being edited; 0 means none.
func (cl *Client) checkCategory(ctx context.Context, op string, in model.CategoryInput, editingID int64) *Error {
	if in.Name == "" {
		return validationErr(op, KeyCategories, "category name is required")
	}
	if !in.Type.Valid() {
		return validationErr(op, KeyCategories, "category type must be %q or %q", model.KindIncome, model.KindExpense)
	}
	for _, cat := range cl.categories.Entry(ctx).Data {
		if editingID != 0 && cat.ID == editingID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(cat.Name), in.Name) {
			return validationErr(op, KeyCategories, "category %q already exists", in.Name)
		}
	}
	return nil
}

func (cl *Client) checkTransaction(op string, key Key, in model.TransactionInput) *Error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return validationErr(op, key, "name is required")
	case in.Amount.IsNegative():
		return validationErr(op, key, "amount must not be negative")
	case !in.Date.Valid():
		return validationErr(op, key, "date is required")
	case in.Date.After(cl.Today()):
		return validationErr(op, key, "date %s is in the future", in.Date)
	case in.CategoryID <= 0:
		return validationErr(op, key, "category is required")
	}
	return nil
}

// resolveIcon picks the icon sent with a transaction: the caller's when set,
// else the cached category's, else none.
func (cl *Client) resolveIcon(ctx context.Context, icon string, categoryID int64) *string {
	if ic := strings.TrimSpace(icon); ic != "" {
		return &ic
	}
	for _, cat := range cl.categories.Entry(ctx).Data {
		if ic := strings.TrimSpace(cat.Icon); cat.ID == categoryID && ic != "" {
			return &ic
		}
	}
	return nil
}

func (cl *Client) payload(ctx context.Context, in model.TransactionInput) model.TransactionPayload {
	return model.TransactionPayload{
		Name:       strings.TrimSpace(in.Name),
		Amount:     in.Amount,
		Date:       in.Date,
		Icon:       cl.resolveIcon(ctx, in.Icon, in.CategoryID),
		CategoryID: in.CategoryID,
	}
}
