// Package memstore is an in-memory Store implementation used by tests and
// the memory db driver. It honors the same unit-of-work contract as the
// gorm-backed store: WithinTx stages every write on a cloned data set and
// publishes it only when the callback succeeds.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/errors"
)

type dataset struct {
	batches map[string]*models.Batch
	rows    map[string]*models.Row
	games   map[string]*models.Game
	bets    map[string]*models.Bet
	audits  []*models.AuditEntry
}

func newDataset() *dataset {
	return &dataset{
		batches: make(map[string]*models.Batch),
		rows:    make(map[string]*models.Row),
		games:   make(map[string]*models.Game),
		bets:    make(map[string]*models.Bet),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for id, b := range d.batches {
		c.batches[id] = deepCopy(b)
	}
	for id, r := range d.rows {
		c.rows[id] = deepCopy(r)
	}
	for id, g := range d.games {
		c.games[id] = deepCopy(g)
	}
	for id, b := range d.bets {
		c.bets[id] = deepCopy(b)
	}
	c.audits = make([]*models.AuditEntry, len(d.audits))
	for i, a := range d.audits {
		c.audits[i] = deepCopy(a)
	}
	return c
}

// deepCopy round-trips a record through JSON. All persisted models carry
// full JSON tags, so this is lossless.
func deepCopy[T any](v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

// Store is the in-memory implementation of store.Store.
type Store struct {
	mu   *sync.RWMutex
	data *dataset

	// inTx marks a transactional view; its writes land on a staged clone
	// and must not retake the root lock.
	inTx bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{mu: &sync.RWMutex{}, data: newDataset()}
}

func (s *Store) Batches() store.BatchRepo { return &batchRepo{s} }
func (s *Store) Rows() store.RowRepo      { return &rowRepo{s} }
func (s *Store) Games() store.GameRepo    { return &gameRepo{s} }
func (s *Store) Bets() store.BetRepo      { return &betRepo{s} }
func (s *Store) Audit() store.AuditRepo   { return &auditRepo{s} }

// WithinTx clones the current data set, runs fn against a view backed by
// the clone, and swaps the clone in only if fn succeeds. Holding the write
// lock for the whole callback gives the single-writer guarantee the
// validation and import flows rely on.
func (s *Store) WithinTx(ctx context.Context, fn func(store.Store) error) error {
	if s.inTx {
		// Nested calls join the ambient transaction.
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &Store{mu: s.mu, data: s.data.clone(), inTx: true}
	if err := fn(staged); err != nil {
		return err
	}
	s.data = staged.data
	return nil
}

func (s *Store) read(fn func(*dataset)) {
	if !s.inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.data)
}

func (s *Store) write(fn func(*dataset) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

type batchRepo struct{ s *Store }

func (r *batchRepo) Create(ctx context.Context, batch *models.Batch) error {
	return r.s.write(func(d *dataset) error {
		if _, exists := d.batches[batch.ID]; exists {
			return errors.StorageError(errors.CodeStoreConflict, "batch", nil).
				WithContext("batch_id", batch.ID)
		}
		d.batches[batch.ID] = deepCopy(batch)
		return nil
	})
}

func (r *batchRepo) Get(ctx context.Context, id string) (*models.Batch, error) {
	var out *models.Batch
	r.s.read(func(d *dataset) {
		if b, ok := d.batches[id]; ok {
			out = deepCopy(b)
		}
	})
	if out == nil {
		return nil, errors.StorageError(errors.CodeNotFound, "batch", nil).
			WithContext("batch_id", id)
	}
	return out, nil
}

func (r *batchRepo) Update(ctx context.Context, batch *models.Batch) error {
	return r.s.write(func(d *dataset) error {
		if _, ok := d.batches[batch.ID]; !ok {
			return errors.StorageError(errors.CodeNotFound, "batch", nil).
				WithContext("batch_id", batch.ID)
		}
		batch.UpdatedAt = time.Now().UTC()
		d.batches[batch.ID] = deepCopy(batch)
		return nil
	})
}

func (r *batchRepo) List(ctx context.Context, limit int) ([]*models.Batch, error) {
	var out []*models.Batch
	r.s.read(func(d *dataset) {
		for _, b := range d.batches {
			out = append(out, deepCopy(b))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type rowRepo struct{ s *Store }

func (r *rowRepo) CreateMany(ctx context.Context, rows []*models.Row) error {
	return r.s.write(func(d *dataset) error {
		for _, row := range rows {
			if _, exists := d.rows[row.ID]; exists {
				return errors.StorageError(errors.CodeStoreConflict, "row", nil).
					WithContext("row_id", row.ID)
			}
			d.rows[row.ID] = deepCopy(row)
		}
		return nil
	})
}

func (r *rowRepo) Get(ctx context.Context, id string) (*models.Row, error) {
	var out *models.Row
	r.s.read(func(d *dataset) {
		if row, ok := d.rows[id]; ok {
			out = deepCopy(row)
		}
	})
	if out == nil {
		return nil, errors.StorageError(errors.CodeNotFound, "row", nil).
			WithContext("row_id", id)
	}
	return out, nil
}

func (r *rowRepo) Update(ctx context.Context, row *models.Row) error {
	return r.s.write(func(d *dataset) error {
		if _, ok := d.rows[row.ID]; !ok {
			return errors.StorageError(errors.CodeNotFound, "row", nil).
				WithContext("row_id", row.ID)
		}
		row.UpdatedAt = time.Now().UTC()
		d.rows[row.ID] = deepCopy(row)
		return nil
	})
}

func (r *rowRepo) ListByBatch(ctx context.Context, batchID string) ([]*models.Row, error) {
	var out []*models.Row
	r.s.read(func(d *dataset) {
		for _, row := range d.rows {
			if row.BatchID == batchID {
				out = append(out, deepCopy(row))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RowNumber < out[j].RowNumber })
	return out, nil
}

func (r *rowRepo) ListByBatchAndStatus(ctx context.Context, batchID string, status models.ValidationStatus) ([]*models.Row, error) {
	rows, err := r.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	filtered := rows[:0]
	for _, row := range rows {
		if row.ValidationStatus == status {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

type gameRepo struct{ s *Store }

func (r *gameRepo) Find(ctx context.Context, q store.GameQuery) ([]*models.Game, error) {
	var out []*models.Game
	r.s.read(func(d *dataset) {
		for _, g := range d.games {
			if !matchesQuery(g, q) {
				continue
			}
			out = append(out, deepCopy(g))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func matchesQuery(g *models.Game, q store.GameQuery) bool {
	if q.SportKey != "" && g.SportKey != q.SportKey {
		return false
	}
	if !q.Start.IsZero() && g.StartTime.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && g.StartTime.After(q.End) {
		return false
	}
	if len(q.Teams) > 0 {
		found := false
		for _, t := range q.Teams {
			if g.HasSide(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *gameRepo) UpsertByExternalID(ctx context.Context, games []*models.Game) error {
	return r.s.write(func(d *dataset) error {
		for _, g := range games {
			existing := ""
			for id, cur := range d.games {
				if cur.SportKey == g.SportKey && cur.ExternalID == g.ExternalID {
					existing = id
					break
				}
			}
			clone := deepCopy(g)
			if existing != "" {
				clone.ID = existing
			}
			d.games[clone.ID] = clone
		}
		return nil
	})
}

func (r *gameRepo) Get(ctx context.Context, id string) (*models.Game, error) {
	var out *models.Game
	r.s.read(func(d *dataset) {
		if g, ok := d.games[id]; ok {
			out = deepCopy(g)
		}
	})
	if out == nil {
		return nil, errors.StorageError(errors.CodeNotFound, "game", nil).
			WithContext("game_id", id)
	}
	return out, nil
}

type betRepo struct{ s *Store }

func (r *betRepo) Create(ctx context.Context, bet *models.Bet) error {
	return r.s.write(func(d *dataset) error {
		if _, exists := d.bets[bet.ID]; exists {
			return errors.StorageError(errors.CodeStoreConflict, "bet", nil).
				WithContext("bet_id", bet.ID)
		}
		d.bets[bet.ID] = deepCopy(bet)
		return nil
	})
}

func (r *betRepo) Get(ctx context.Context, id string) (*models.Bet, error) {
	var out *models.Bet
	r.s.read(func(d *dataset) {
		if b, ok := d.bets[id]; ok {
			out = deepCopy(b)
		}
	})
	if out == nil {
		return nil, errors.StorageError(errors.CodeNotFound, "bet", nil).
			WithContext("bet_id", id)
	}
	return out, nil
}

func (r *betRepo) ListByBatch(ctx context.Context, batchID string) ([]*models.Bet, error) {
	var out []*models.Bet
	r.s.read(func(d *dataset) {
		for _, b := range d.bets {
			if b.BatchID == batchID {
				out = append(out, deepCopy(b))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *betRepo) DeleteByBatch(ctx context.Context, batchID string) (int, error) {
	deleted := 0
	err := r.s.write(func(d *dataset) error {
		for id, b := range d.bets {
			if b.BatchID == batchID {
				delete(d.bets, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Append(ctx context.Context, entry *models.AuditEntry) error {
	return r.s.write(func(d *dataset) error {
		d.audits = append(d.audits, deepCopy(entry))
		return nil
	})
}

func (r *auditRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditEntry, error) {
	var out []*models.AuditEntry
	r.s.read(func(d *dataset) {
		for _, a := range d.audits {
			if a.EntityType == entityType && a.EntityID == entityID {
				out = append(out, deepCopy(a))
			}
		}
	})
	return out, nil
}
