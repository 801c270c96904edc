package fincache

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/fincache/credential"
	"github.com/unkn0wn-root/fincache/model"
	pr "github.com/unkn0wn-root/fincache/provider"
	"github.com/unkn0wn-root/fincache/series"
)

// Client is the cache for one signed-in user. It is safe for concurrent use.
type Client struct {
	backend  Backend
	creds    credential.Store
	provider pr.Provider
	clock    clockwork.Clock
	log      Logger
	hooks    Hooks
	rollback bool

	dashboard  *Fetcher[model.Dashboard]
	categories *Fetcher[[]model.Category]
	incomes    *Fetcher[[]model.Transaction]
	expenses   *Fetcher[[]model.Transaction]

	profile singleflight.Group
}

func (cl *Client) Dashboard(ctx context.Context) Entry[model.Dashboard] {
	return cl.dashboard.Entry(ctx)
}

func (cl *Client) Categories(ctx context.Context) Entry[[]model.Category] {
	return cl.categories.Entry(ctx)
}

func (cl *Client) Incomes(ctx context.Context) Entry[[]model.Transaction] {
	return cl.incomes.Entry(ctx)
}

func (cl *Client) Expenses(ctx context.Context) Entry[[]model.Transaction] {
	return cl.expenses.Entry(ctx)
}

// Transactions returns the cached list for kind; an unknown kind reads empty.
func (cl *Client) Transactions(ctx context.Context, kind model.Kind) Entry[[]model.Transaction] {
	f := cl.transactions(kind)
	if f == nil {
		return Entry[[]model.Transaction]{}
	}
	return f.Entry(ctx)
}

// FetchIfNeeded reads key from the backend unless it is fresh or already in
// flight. Without a stored credential it fails with KindAuthInvalid and makes
// no request.
func (cl *Client) FetchIfNeeded(ctx context.Context, key Key, opts ...FetchOption) error {
	if !key.Valid() {
		return validationErr(OpFetch, key, "unknown resource %q", key)
	}
	if !cl.LoggedIn() {
		return cl.fail(ctx, wrapErr(OpFetch, key, credential.ErrNoToken))
	}
	var err error
	switch key {
	case KeyDashboard:
		_, err = cl.dashboard.FetchIfNeeded(ctx, opts...)
	case KeyCategories:
		_, err = cl.categories.FetchIfNeeded(ctx, opts...)
	case KeyIncomes:
		_, err = cl.incomes.FetchIfNeeded(ctx, opts...)
	case KeyExpenses:
		_, err = cl.expenses.FetchIfNeeded(ctx, opts...)
	}
	return err
}

// Refresh runs FetchIfNeeded for every resource concurrently and returns the
// first failure.
func (cl *Client) Refresh(ctx context.Context, opts ...FetchOption) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range Keys {
		k := k
		g.Go(func() error { return cl.FetchIfNeeded(gctx, k, opts...) })
	}
	return g.Wait()
}

// Loading reports whether a fetch for key is in flight.
func (cl *Client) Loading(key Key) bool {
	switch key {
	case KeyDashboard:
		return cl.dashboard.Loading()
	case KeyCategories:
		return cl.categories.Loading()
	case KeyIncomes:
		return cl.incomes.Loading()
	case KeyExpenses:
		return cl.expenses.Loading()
	}
	return false
}

// Invalidate marks key stale while keeping its data readable.
func (cl *Client) Invalidate(ctx context.Context, key Key) error {
	switch key {
	case KeyDashboard:
		return cl.dashboard.store.Invalidate(ctx)
	case KeyCategories:
		return cl.categories.store.Invalidate(ctx)
	case KeyIncomes:
		return cl.incomes.store.Invalidate(ctx)
	case KeyExpenses:
		return cl.expenses.store.Invalidate(ctx)
	}
	return validationErr(OpFetch, key, "unknown resource %q", key)
}

// Reset empties every entry. Fetches still in flight cannot write back.
func (cl *Client) Reset(ctx context.Context) error {
	return errors.Join(
		cl.dashboard.store.Reset(ctx),
		cl.categories.store.Reset(ctx),
		cl.incomes.store.Reset(ctx),
		cl.expenses.store.Reset(ctx),
	)
}

// Today is the current calendar date on the client's clock.
func (cl *Client) Today() model.Date {
	return model.DateOf(cl.clock.Now())
}

// Series aggregates the cached list for kind into daily chart buckets.
func (cl *Client) Series(ctx context.Context, kind model.Kind) []series.Bucket {
	return series.Aggregate(cl.Transactions(ctx, kind).Data)
}

// Filter searches transactions on the server. Results are never cached.
func (cl *Client) Filter(ctx context.Context, req model.FilterRequest) ([]model.Transaction, error) {
	if !req.Type.Valid() {
		return nil, validationErr(OpFilter, "", "unknown transaction type %q", req.Type)
	}
	if req.StartDate.Valid() && req.EndDate.Valid() && req.StartDate.After(req.EndDate) {
		return nil, validationErr(OpFilter, "", "start date %s is after end date %s", req.StartDate, req.EndDate)
	}
	out, err := cl.backend.Filter(ctx, req)
	if err != nil {
		return nil, cl.fail(ctx, wrapErr(OpFilter, "", err))
	}
	if out == nil {
		out = []model.Transaction{}
	}
	return out, nil
}

func (cl *Client) Close(ctx context.Context) error {
	return cl.provider.Close(ctx)
}

// fail logs and reports e; an auth failure also ends the session.
func (cl *Client) fail(ctx context.Context, e *Error) error {
	logFailure(cl.log, e)
	cl.hooks.Failed(e.Op, e.Key, e.Kind)
	if e.Kind == KindAuthInvalid {
		cl.hooks.SessionInvalidated(e.Op, e.Key)
		if err := cl.endSession(ctx); err != nil {
			cl.log.Error("session reset failed", Fields{"err": err})
		}
	}
	return e
}

func (cl *Client) transactions(kind model.Kind) *Fetcher[[]model.Transaction] {
	switch kind {
	case model.KindIncome:
		return cl.incomes
	case model.KindExpense:
		return cl.expenses
	}
	return nil
}

func (cl *Client) loadDashboard(ctx context.Context) (model.Dashboard, error) {
	d, err := cl.backend.Dashboard(ctx)
	if err != nil {
		return model.Dashboard{}, err
	}
	return d.Normalize(), nil
}

func (cl *Client) loadTransactions(kind model.Kind) LoadFunc[[]model.Transaction] {
	return func(ctx context.Context) ([]model.Transaction, error) {
		txs, err := cl.backend.ListTransactions(ctx, kind)
		if err != nil {
			return nil, err
		}
		if txs == nil {
			txs = []model.Transaction{}
		}
		return txs, nil
	}
}
