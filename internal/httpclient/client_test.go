package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequest_GetDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "ETHUSDT" {
			t.Errorf("symbol = %q", got)
		}
		if r.Header.Get("X-Client") != "pools" {
			t.Errorf("missing default header")
		}
		fmt.Fprint(w, `{"symbol":"ETHUSDT","price":"3000.50"}`)
	}))
	defer srv.Close()

	c, err := NewInstrumentedClient(
		WithBaseURL(srv.URL),
		WithProviderName("test"),
		WithHeaders(map[string]string{"X-Client": "pools"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	resp, err := c.NewRequestWithOptions(WithLabels(NewLabel("endpoint", "ticker"))).
		SetQueryParam("symbol", "ETHUSDT").
		SetResult(&out).
		Get(context.Background(), "/api/v3/ticker/price")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.IsError() {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if out.Price != "3000.50" {
		t.Errorf("price = %q", out.Price)
	}
}

func TestRequest_QueryParamsAreEscaped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("market"); got != "ETH/USD" {
			t.Errorf("market = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.NewRequest().SetQueryParam("market", "ETH/USD").Get(context.Background(), "pools"); err != nil {
		t.Fatal(err)
	}
}

func TestRequest_ErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"msg":"upstream down"}`)
	}))
	defer srv.Close()

	sentinel := errors.New("upstream")
	c, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.NewRequestWithOptions(WithResponseErrorHandler(func(status int, body []byte) error {
		if status >= 500 {
			return sentinel
		}
		return nil
	})).Get(context.Background(), "/pools")

	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}
}

func TestRequest_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	c, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	_, err = c.NewRequest().SetResult(&out).Get(context.Background(), "/pools")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}
