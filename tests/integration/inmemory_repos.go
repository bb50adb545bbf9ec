package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is a shared in-memory backing store. Unlike a plain map-based
// fake it honors the same concurrency contract as the PostgreSQL adapter:
// UpdateBalance is a compare-and-swap on the wallet version, and
// GetByIDForUpdate takes a per-wallet row lock held until the enclosing
// transaction commits or rolls back. Concurrency tests against it exercise
// the engine's retry and lock-ordering behavior for real.
type memStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
	rowLock map[uuid.UUID]*sync.Mutex
	txns    []domain.Transaction
	nextSeq int64
}

func newMemStore() *memStore {
	return &memStore{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		rowLock: make(map[uuid.UUID]*sync.Mutex),
	}
}

func copyWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

// --- Wallet repository ---

type inMemoryWalletRepo struct {
	store *memStore
}

func newInMemoryWalletRepo(store *memStore) *inMemoryWalletRepo {
	return &inMemoryWalletRepo{store: store}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.wallets[w.ID] = copyWallet(w)
	r.store.rowLock[w.ID] = &sync.Mutex{}
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[id]
	if !ok {
		return nil, nil
	}
	return copyWallet(w), nil
}

func (r *inMemoryWalletRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

// GetByIDForUpdate blocks until the wallet's row lock is available, exactly
// like SELECT ... FOR UPDATE. The lock is registered on the transaction and
// released by its Commit or Rollback.
func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.Lock()
	lock, ok := r.store.rowLock[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, nil
	}

	lock.Lock()
	if mt, ok := tx.(*memTx); ok {
		mt.hold(lock)
	}

	return r.GetByID(ctx, id)
}

// UpdateBalance applies the balance only when the caller's version still
// matches the stored row, mirroring the SQL version-guarded UPDATE.
func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cur, ok := r.store.wallets[w.ID]
	if !ok {
		return domain.ErrVersionConflict
	}
	if cur.Version != w.Version {
		return domain.ErrVersionConflict
	}

	cur.Balance = w.Balance
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()

	w.Version = cur.Version
	w.UpdatedAt = cur.UpdatedAt
	return nil
}

// --- Transaction repository ---

type inMemoryTransactionRepo struct {
	store *memStore
}

func newInMemoryTransactionRepo(store *memStore) *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{store: store}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextSeq++
	t.Seq = r.store.nextSeq
	r.store.txns = append(r.store.txns, *t)
	return nil
}

func (r *inMemoryTransactionRepo) FindLatestAtOrBefore(ctx context.Context, walletID uuid.UUID, ts time.Time) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var latest *domain.Transaction
	for i := range r.store.txns {
		t := &r.store.txns[i]
		if t.WalletID != walletID || t.CreatedAt.After(ts) {
			continue
		}
		if latest == nil ||
			t.CreatedAt.After(latest.CreatedAt) ||
			(t.CreatedAt.Equal(latest.CreatedAt) && t.Seq > latest.Seq) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (r *inMemoryTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []domain.Transaction
	for _, t := range r.store.txns {
		if t.WalletID == walletID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Seq > result[j].Seq
	})
	return result, nil
}

// --- Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx tracks row locks taken during the transaction and releases them on
// Commit or Rollback, whichever comes first.
type memTx struct {
	noopTx
	mu    sync.Mutex
	locks []*sync.Mutex
	done  bool
}

func (t *memTx) hold(l *sync.Mutex) {
	t.mu.Lock()
	t.locks = append(t.locks, l)
	t.mu.Unlock()
}

func (t *memTx) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	for i := len(t.locks) - 1; i >= 0; i-- {
		t.locks[i].Unlock()
	}
	t.locks = nil
}

func (t *memTx) Commit(ctx context.Context) error   { t.release(); return nil }
func (t *memTx) Rollback(ctx context.Context) error { t.release(); return nil }

// noopTx supplies the rest of the pgx.Tx surface, unused by the in-memory repos.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
