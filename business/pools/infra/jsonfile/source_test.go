package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
)

func TestSource_Rows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.json")
	body := `[{"name":"3-ETH/USD","marketSymbol":"ETH/USD","tvl":"100","poolStatus":"Live"}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	rows, err := NewSource(path).Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Leverage != 3 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSource_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "nope.json")).Rows(context.Background())
	if apperror.GetCode(err) != apperror.CodePoolSourceFailed {
		t.Errorf("err = %v", err)
	}
}

func TestSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSource("unused").Rows(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestSource_SaveThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.json")
	src := NewSource(path)

	rows := []domain.PoolTokenRow{{
		Name:         "1-BTC/USD",
		MarketSymbol: "BTC/USD",
		Leverage:     1,
		TVL:          decimal.NewFromInt(42),
		PoolStatus:   domain.PoolStatusLive,
	}}
	id, err := src.SaveSnapshot(context.Background(), rows)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("snapshot id %q is not a uuid", id)
	}

	got, err := src.Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].TVL.Equal(decimal.NewFromInt(42)) || got[0].Name != "1-BTC/USD" {
		t.Errorf("read back %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}
