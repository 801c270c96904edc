package fincache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/fincache/model"
	pr "github.com/unkn0wn-root/fincache/provider"
)

type memProvider struct {
	mu     sync.Mutex
	m      map[string][]byte
	reject bool // Set returns ok=false
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false, nil
	}
	p.m[key] = append([]byte(nil), value...)
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

type hookRecorder struct {
	NopHooks
	mu     sync.Mutex
	events []string
}

func (h *hookRecorder) add(format string, args ...any) {
	h.mu.Lock()
	h.events = append(h.events, fmt.Sprintf(format, args...))
	h.mu.Unlock()
}

func (h *hookRecorder) FetchSkipped(k Key, reason string)    { h.add("skip:%s:%s", k, reason) }
func (h *hookRecorder) StaleWriteDropped(k Key)              { h.add("dropped:%s", k) }
func (h *hookRecorder) SelfHeal(k Key, reason string)        { h.add("heal:%s:%s", k, reason) }
func (h *hookRecorder) ProviderSetRejected(k Key)            { h.add("rejected:%s", k) }
func (h *hookRecorder) OptimisticRemoved(k Key, id int64)    { h.add("removed:%s:%d", k, id) }
func (h *hookRecorder) DeleteRolledBack(k Key, id int64)     { h.add("rollback:%s:%d", k, id) }
func (h *hookRecorder) SessionInvalidated(op string, k Key)  { h.add("session:%s:%s", op, k) }
func (h *hookRecorder) Failed(op string, k Key, e ErrorKind) { h.add("failed:%s:%s:%s", op, k, e) }

func (h *hookRecorder) has(ev string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.events {
		if e == ev {
			return true
		}
	}
	return false
}

type statusErr struct {
	code int
	msg  string
}

func (e *statusErr) Error() string         { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) StatusCode() int       { return e.code }
func (e *statusErr) ServerMessage() string { return e.msg }

// fakeBackend serves canned data. A gate blocks the named call until closed;
// started receives the name of every call as it begins.
type fakeBackend struct {
	mu         sync.Mutex
	calls      map[string]int
	errs       map[string]error
	gates      map[string]chan struct{}
	started    chan string
	dashboard  model.Dashboard
	categories []model.Category
	txs        map[model.Kind][]model.Transaction
	payloads   []model.TransactionPayload
	catInputs  []model.CategoryInput
	login      model.LoginResult
	user       model.User
	nextID     int64
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:   make(map[string]int),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 64),
		txs:     make(map[model.Kind][]model.Transaction),
		nextID:  100,
	}
}

func (b *fakeBackend) gate(name string) chan struct{} {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[name] = ch
	b.mu.Unlock()
	return ch
}

func (b *fakeBackend) fail(name string, err error) {
	b.mu.Lock()
	b.errs[name] = err
	b.mu.Unlock()
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) enter(name string) error {
	b.mu.Lock()
	b.calls[name]++
	gate := b.gates[name]
	err := b.errs[name]
	b.mu.Unlock()

	select {
	case b.started <- name:
	default:
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (b *fakeBackend) Dashboard(context.Context) (model.Dashboard, error) {
	if err := b.enter("Dashboard"); err != nil {
		return model.Dashboard{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dashboard, nil
}

// ListCategories reads the list before waiting on its gate, like a server
// read that started before a concurrent write.
func (b *fakeBackend) ListCategories(context.Context) ([]model.Category, error) {
	b.mu.Lock()
	cats := append([]model.Category(nil), b.categories...)
	b.mu.Unlock()
	if err := b.enter("ListCategories"); err != nil {
		return nil, err
	}
	return cats, nil
}

func (b *fakeBackend) CreateCategory(_ context.Context, in model.CategoryInput) (model.Category, error) {
	if err := b.enter("CreateCategory"); err != nil {
		return model.Category{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	cat := model.Category{ID: b.nextID, Name: in.Name, Type: in.Type, Icon: in.Icon}
	b.catInputs = append(b.catInputs, in)
	b.categories = append(b.categories, cat)
	return cat, nil
}

func (b *fakeBackend) UpdateCategory(_ context.Context, id int64, in model.CategoryInput) (model.Category, error) {
	if err := b.enter("UpdateCategory"); err != nil {
		return model.Category{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catInputs = append(b.catInputs, in)
	cat := model.Category{ID: id, Name: in.Name, Type: in.Type, Icon: in.Icon}
	for i := range b.categories {
		if b.categories[i].ID == id {
			b.categories[i] = cat
		}
	}
	return cat, nil
}

func (b *fakeBackend) ListTransactions(_ context.Context, kind model.Kind) ([]model.Transaction, error) {
	if err := b.enter("ListTransactions:" + string(kind)); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Transaction(nil), b.txs[kind]...), nil
}

func (b *fakeBackend) CreateTransaction(_ context.Context, kind model.Kind, p model.TransactionPayload) (model.Transaction, error) {
	if err := b.enter("CreateTransaction"); err != nil {
		return model.Transaction{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.payloads = append(b.payloads, p)
	tx := model.Transaction{ID: b.nextID, Name: p.Name, Amount: p.Amount, Date: p.Date, Icon: p.Icon, CategoryID: p.CategoryID, Type: kind}
	b.txs[kind] = append(b.txs[kind], tx)
	return tx, nil
}

func (b *fakeBackend) UpdateTransaction(_ context.Context, kind model.Kind, id int64, p model.TransactionPayload) (model.Transaction, error) {
	if err := b.enter("UpdateTransaction"); err != nil {
		return model.Transaction{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, p)
	tx := model.Transaction{ID: id, Name: p.Name, Amount: p.Amount, Date: p.Date, Icon: p.Icon, CategoryID: p.CategoryID, Type: kind}
	for i := range b.txs[kind] {
		if b.txs[kind][i].ID == id {
			b.txs[kind][i] = tx
		}
	}
	return tx, nil
}

func (b *fakeBackend) DeleteTransaction(_ context.Context, kind model.Kind, id int64) error {
	if err := b.enter("DeleteTransaction"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.txs[kind][:0]
	for _, tx := range b.txs[kind] {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	b.txs[kind] = kept
	return nil
}

func (b *fakeBackend) Filter(_ context.Context, req model.FilterRequest) ([]model.Transaction, error) {
	if err := b.enter("Filter"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Transaction(nil), b.txs[req.Type]...), nil
}

func (b *fakeBackend) Login(context.Context, model.Credentials) (model.LoginResult, error) {
	if err := b.enter("Login"); err != nil {
		return model.LoginResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.login, nil
}

func (b *fakeBackend) Profile(context.Context) (model.User, error) {
	if err := b.enter("Profile"); err != nil {
		return model.User{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.user, nil
}
