package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// RecordStore implements domain.RecordStore using PostgreSQL. The packed
// register is stored as a 32-byte big-endian BYTEA, the owner as the raw
// 20-byte address.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore creates a RecordStore backed by the given connection pool.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// Save upserts a position snapshot.
func (s *RecordStore) Save(ctx context.Context, rec domain.PositionRecord) error {
	reg := rec.Record.Bytes32()

	const query = `
		INSERT INTO positions (id, record, owner, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			record     = EXCLUDED.record,
			owner      = EXCLUDED.owner,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, int64(rec.ID), reg[:], rec.Owner.Bytes()); err != nil {
		return fmt.Errorf("postgres: save position %d: %w", rec.ID, err)
	}
	return nil
}

// UpdateOwner rewrites only the owner column for a position.
func (s *RecordStore) UpdateOwner(ctx context.Context, id uint64, owner common.Address) error {
	const query = `UPDATE positions SET owner = $2, updated_at = NOW() WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, int64(id), owner.Bytes())
	if err != nil {
		return fmt.Errorf("postgres: update owner of %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update owner of %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a position snapshot after an unlock.
func (s *RecordStore) Delete(ctx context.Context, id uint64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("postgres: delete position %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete position %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns every persisted position snapshot, ordered by id.
func (s *RecordStore) List(ctx context.Context) ([]domain.PositionRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, record, owner FROM positions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	defer rows.Close()

	var recs []domain.PositionRecord
	for rows.Next() {
		var (
			id     int64
			regRaw []byte
			owner  []byte
		)
		if err := rows.Scan(&id, &regRaw, &owner); err != nil {
			return nil, fmt.Errorf("postgres: scan position row: %w", err)
		}
		recs = append(recs, domain.PositionRecord{
			ID:     uint64(id),
			Record: new(uint256.Int).SetBytes(regRaw),
			Owner:  common.BytesToAddress(owner),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate positions: %w", err)
	}
	return recs, nil
}
