package fincache

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/fincache/model"
)

// Writes return the server's record together with any error from the
// follow-up refetch. Such an error has Op == OpRefresh: the write itself
// succeeded.

func (cl *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	in = normalizeCategory(in)
	if e := cl.checkCategory(ctx, OpCreate, in, 0); e != nil {
		return model.Category{}, cl.fail(ctx, e)
	}
	cat, err := cl.backend.CreateCategory(ctx, in)
	if err != nil {
		return model.Category{}, cl.fail(ctx, wrapErr(OpCreate, KeyCategories, err))
	}
	cl.log.Info("category created", Fields{"id": cat.ID, "type": cat.Type.String()})
	return cat, cl.syncAfterWrite(ctx, KeyCategories)
}

func (cl *Client) UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, cl.fail(ctx, validationErr(OpUpdate, KeyCategories, "category id is required"))
	}
	in = normalizeCategory(in)
	if e := cl.checkCategory(ctx, OpUpdate, in, id); e != nil {
		return model.Category{}, cl.fail(ctx, e)
	}
	cat, err := cl.backend.UpdateCategory(ctx, id, in)
	if err != nil {
		return model.Category{}, cl.fail(ctx, wrapErr(OpUpdate, KeyCategories, err))
	}
	cl.log.Info("category updated", Fields{"id": id})
	return cat, cl.syncAfterWrite(ctx, KeyCategories)
}

func (cl *Client) CreateTransaction(ctx context.Context, kind model.Kind, in model.TransactionInput) (model.Transaction, error) {
	key, ok := KeyFor(kind)
	if !ok {
		return model.Transaction{}, cl.fail(ctx, validationErr(OpCreate, "", "unknown transaction type %q", kind))
	}
	if e := cl.checkTransaction(OpCreate, key, in); e != nil {
		return model.Transaction{}, cl.fail(ctx, e)
	}
	tx, err := cl.backend.CreateTransaction(ctx, kind, cl.payload(ctx, in))
	if err != nil {
		return model.Transaction{}, cl.fail(ctx, wrapErr(OpCreate, key, err))
	}
	cl.log.Info("transaction created", Fields{"key": key, "id": tx.ID})
	return tx, cl.syncAfterWrite(ctx, key)
}

func (cl *Client) UpdateTransaction(ctx context.Context, kind model.Kind, id int64, in model.TransactionInput) (model.Transaction, error) {
	key, ok := KeyFor(kind)
	if !ok {
		return model.Transaction{}, cl.fail(ctx, validationErr(OpUpdate, "", "unknown transaction type %q", kind))
	}
	if id <= 0 {
		return model.Transaction{}, cl.fail(ctx, validationErr(OpUpdate, key, "transaction id is required"))
	}
	if e := cl.checkTransaction(OpUpdate, key, in); e != nil {
		return model.Transaction{}, cl.fail(ctx, e)
	}
	tx, err := cl.backend.UpdateTransaction(ctx, kind, id, cl.payload(ctx, in))
	if err != nil {
		return model.Transaction{}, cl.fail(ctx, wrapErr(OpUpdate, key, err))
	}
	cl.log.Info("transaction updated", Fields{"key": key, "id": id})
	return tx, cl.syncAfterWrite(ctx, key)
}

// RemoveTransaction hides the record from the cached list, then asks the
// server to delete it. If a cached list, stale or not, lacks the record, the
// call does nothing. A failed delete leaves the record hidden unless
// Options.RollbackFailedDelete is set.
func (cl *Client) RemoveTransaction(ctx context.Context, kind model.Kind, id int64) error {
	key, ok := KeyFor(kind)
	if !ok {
		return cl.fail(ctx, validationErr(OpRemove, "", "unknown transaction type %q", kind))
	}
	if id <= 0 {
		return cl.fail(ctx, validationErr(OpRemove, key, "transaction id is required"))
	}
	f := cl.transactions(kind)

	removed, cached, err := optimisticRemove(ctx, f.store, func(t model.Transaction) bool { return t.ID == id })
	if err != nil {
		cl.log.Warn("optimistic remove failed", Fields{"key": key, "id": id, "err": err})
	}
	if cached && len(removed) == 0 {
		cl.log.Debug("remove skipped; record not cached", Fields{"key": key, "id": id})
		return nil
	}
	if len(removed) > 0 {
		cl.hooks.OptimisticRemoved(key, id)
	}

	if err := cl.backend.DeleteTransaction(ctx, kind, id); err != nil {
		if cl.rollback && len(removed) > 0 {
			if rerr := optimisticRestore(ctx, f.store, removed, sameTransaction); rerr != nil {
				cl.log.Warn("delete rollback failed", Fields{"key": key, "id": id, "err": rerr})
			} else {
				cl.hooks.DeleteRolledBack(key, id)
			}
		}
		return cl.fail(ctx, wrapErr(OpRemove, key, err))
	}
	cl.log.Info("transaction deleted", Fields{"key": key, "id": id})
	return cl.refreshDashboard(ctx)
}

func sameTransaction(a, b model.Transaction) bool { return a.ID == b.ID }

// syncAfterWrite refetches the written resource and the dashboard together.
// Both are invalidated first so a read that started before the write cannot
// commit over it.
func (cl *Client) syncAfterWrite(ctx context.Context, owner Key) error {
	for _, k := range []Key{owner, KeyDashboard} {
		if err := cl.Invalidate(ctx, k); err != nil {
			cl.log.Warn("invalidate after write failed", Fields{"key": k, "err": err})
		}
	}
	var g errgroup.Group
	g.Go(func() error { return cl.FetchIfNeeded(ctx, owner, Force()) })
	g.Go(func() error { return cl.FetchIfNeeded(ctx, KeyDashboard, Force()) })
	return refreshErr(g.Wait())
}

func (cl *Client) refreshDashboard(ctx context.Context) error {
	if err := cl.dashboard.store.Invalidate(ctx); err != nil {
		cl.log.Warn("dashboard invalidate failed", Fields{"err": err})
	}
	return refreshErr(cl.FetchIfNeeded(ctx, KeyDashboard, Force()))
}

func refreshErr(err error) error {
	if err == nil {
		return nil
	}
	var key Key
	var fe *Error
	if errors.As(err, &fe) {
		key = fe.Key
	}
	return wrapErr(OpRefresh, key, err)
}
