package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

const payload = `{"rows":[
  {"name":"3-ETH/USD","marketSymbol":"ETH/USD","tvl":"100","myHoldings":"5","poolStatus":"Live",
   "shortToken":{"symbol":"3S-ETH/USD","tvl":"40"},"longToken":{"symbol":"3L-ETH/USD","tvl":"60"}},
  {"name":"1-BTC/USD","marketSymbol":"BTC/USD","tvl":"200","poolStatus":"Live"}
]}`

func TestSource_Rows(t *testing.T) {
	var gotAccount, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccount = r.URL.Query().Get("account")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	src, err := NewSource(Config{URL: srv.URL + "/v1/pools", Account: "0xabc"}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Name != "3-ETH/USD" || rows[1].Leverage != 1 {
		t.Errorf("rows = %+v", rows)
	}
	if gotPath != "/v1/pools" || gotAccount != "0xabc" {
		t.Errorf("request path=%s account=%s", gotPath, gotAccount)
	}
}

func TestSource_ServerErrorTripsBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	src, err := NewSource(Config{URL: srv.URL + "/pools"}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		_, err := src.Rows(context.Background())
		if apperror.GetCode(err) != apperror.CodePoolSourceFailed {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}

	_, err = src.Rows(context.Background())
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, breaker should stop the 4th", hits.Load())
	}
}

func TestSource_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	src, err := NewSource(Config{URL: srv.URL}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Rows(context.Background()); apperror.GetCode(err) != apperror.CodePoolSourceFailed {
		t.Errorf("err = %v", err)
	}
}

func TestNewSource_InvalidURL(t *testing.T) {
	if _, err := NewSource(Config{URL: "not a url"}, logger.NewNop()); apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("err = %v", err)
	}
}
