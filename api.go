package fincache

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	c "github.com/unkn0wn-root/fincache/codec"
	"github.com/unkn0wn-root/fincache/credential"
	gen "github.com/unkn0wn-root/fincache/genstore"
	"github.com/unkn0wn-root/fincache/model"
	pr "github.com/unkn0wn-root/fincache/provider"
	"github.com/unkn0wn-root/fincache/provider/ristretto"
)

// Backend is the finance REST API as the client consumes it. backend/rest
// implements it over HTTP.
type Backend interface {
	Dashboard(ctx context.Context) (model.Dashboard, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, in model.CategoryInput) (model.Category, error)
	UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (model.Category, error)

	ListTransactions(ctx context.Context, kind model.Kind) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, kind model.Kind, p model.TransactionPayload) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, kind model.Kind, id int64, p model.TransactionPayload) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, kind model.Kind, id int64) error

	Filter(ctx context.Context, req model.FilterRequest) ([]model.Transaction, error)

	Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error)
	Profile(ctx context.Context) (model.User, error)
}

// Options configure a Client.
// Only Backend is required; others have sensible defaults.
type Options struct {
	// Required
	Backend Backend

	Credentials credential.Store // nil => in-memory, empty
	Provider    pr.Provider      // nil => Ristretto with ristretto.DefaultConfig
	Codec       string           // "json" (default), "msgpack" or "cbor"
	MaxDecode   int              // payload bytes; 0 => unlimited
	Namespace   string           // storage key prefix; "" => "fincache"
	StaleTime   time.Duration    // incomes/expenses freshness; 0 => 60s
	Clock       clockwork.Clock  // nil => real clock
	Logger      Logger           // if nil, NopLogger is used
	Hooks       Hooks            // if nil, NopHooks is used
	GenStore    gen.GenStore     // nil => genstore.Local

	// RollbackFailedDelete restores an optimistically removed record when
	// the delete request fails. Off by default: the record stays hidden
	// until the next refetch.
	RollbackFailedDelete bool
}

func New(opts Options) (*Client, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("fincache: backend is required")
	}
	cl := &Client{
		backend:  opts.Backend,
		creds:    opts.Credentials,
		provider: opts.Provider,
		rollback: opts.RollbackFailedDelete,
	}
	if cl.creds == nil {
		cl.creds = credential.NewMemory("")
	}
	if cl.provider == nil {
		p, err := ristretto.New(ristretto.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("fincache: default provider: %w", err)
		}
		cl.provider = p
	}
	cl.log = coalesce[Logger](opts.Logger, NopLogger{})
	cl.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cl.clock = coalesce[clockwork.Clock](opts.Clock, clockwork.NewRealClock())
	staleTime := coalesce(opts.StaleTime, DefaultStaleTime)

	deps := storeDeps{
		ns:       coalesce(opts.Namespace, DefaultNamespace),
		provider: cl.provider,
		gens:     coalesce[gen.GenStore](opts.GenStore, gen.NewLocal()),
		clock:    cl.clock,
		log:      cl.log,
		hooks:    cl.hooks,
	}

	dashCodec, err := buildCodec[model.Dashboard](opts.Codec, opts.MaxDecode)
	if err != nil {
		return nil, err
	}
	catCodec, err := buildCodec[[]model.Category](opts.Codec, opts.MaxDecode)
	if err != nil {
		return nil, err
	}
	txCodec, err := buildCodec[[]model.Transaction](opts.Codec, opts.MaxDecode)
	if err != nil {
		return nil, err
	}

	ttl := func(k Key) time.Duration {
		if k.ttlGoverned() {
			return staleTime
		}
		return 0
	}
	cl.dashboard = newFetcher(newStore(KeyDashboard, dashCodec, deps), cl.loadDashboard, ttl(KeyDashboard), cl.clock, cl.log, cl.hooks)
	cl.categories = newFetcher(newStore(KeyCategories, catCodec, deps), cl.backend.ListCategories, ttl(KeyCategories), cl.clock, cl.log, cl.hooks)
	cl.incomes = newFetcher(newStore(KeyIncomes, txCodec, deps), cl.loadTransactions(model.KindIncome), ttl(KeyIncomes), cl.clock, cl.log, cl.hooks)
	cl.expenses = newFetcher(newStore(KeyExpenses, txCodec, deps), cl.loadTransactions(model.KindExpense), ttl(KeyExpenses), cl.clock, cl.log, cl.hooks)

	cl.dashboard.onFail = cl.fail
	cl.categories.onFail = cl.fail
	cl.incomes.onFail = cl.fail
	cl.expenses.onFail = cl.fail
	return cl, nil
}

func buildCodec[V any](name string, maxDecode int) (c.Codec[V], error) {
	cc, err := c.New[V](name)
	if err != nil {
		return nil, fmt.Errorf("fincache: %w", err)
	}
	if maxDecode > 0 {
		return c.Limit[V]{Inner: cc, MaxDecode: maxDecode}, nil
	}
	return cc, nil
}
