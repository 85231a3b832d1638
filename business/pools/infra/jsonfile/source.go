// Package jsonfile reads and writes pool snapshots as JSON files.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/business/pools/infra/wire"
	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// Source serves rows from a snapshot file, re-reading it on every call so
// an external writer can refresh it.
type Source struct {
	path string
	now  func() time.Time
}

// NewSource creates a Source for path.
func NewSource(path string) *Source {
	return &Source{path: path, now: time.Now}
}

// Name implements app.RowSource.
func (s *Source) Name() string {
	return "jsonfile"
}

// Rows implements app.RowSource.
func (s *Source) Rows(ctx context.Context) ([]domain.PoolTokenRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperror.New(apperror.CodePoolSourceFailed,
			apperror.WithContext(s.path), apperror.WithCause(err))
	}
	rows, err := wire.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return rows, nil
}

// SaveSnapshot writes rows to the file, replacing it atomically.
func (s *Source) SaveSnapshot(ctx context.Context, rows []domain.PoolTokenRow) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	snap := wire.Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: s.now().UTC(),
		Rows:        wire.FromDomain(rows),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pools-*.json")
	if err != nil {
		return "", apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}
	if err := tmp.Close(); err != nil {
		return "", apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return "", apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}
	return snap.ID, nil
}
