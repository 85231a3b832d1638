package monolith

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/perpetual-pools/internal/config"
	"github.com/fd1az/perpetual-pools/internal/di"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

type fakeModule struct {
	name    string
	trace   *[]string
	closeFn func() error
}

func (m *fakeModule) RegisterServices(c di.Container) error {
	*m.trace = append(*m.trace, "register:"+m.name)
	c.Register("fake."+m.name, m.name)
	return nil
}

func (m *fakeModule) Startup(ctx context.Context, mono Monolith) error {
	*m.trace = append(*m.trace, "start:"+m.name)
	if mono.Services().Get("fake."+m.name) != m.name {
		return errors.New("service not resolvable")
	}
	return nil
}

func (m *fakeModule) Close() error {
	*m.trace = append(*m.trace, "close:"+m.name)
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

func TestApp_ModuleLifecycle(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Port: 8080}}
	a := New(cfg, logger.NewNop(), "test")

	var trace []string
	pricing := &fakeModule{name: "pricing", trace: &trace}
	pools := &fakeModule{name: "pools", trace: &trace, closeFn: func() error { return errors.New("db") }}

	if err := a.RegisterModules(pricing, pools); err != nil {
		t.Fatal(err)
	}
	if err := a.StartModules(context.Background(), pricing, pools); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err == nil {
		t.Error("expected close error to propagate")
	}

	want := []string{
		"register:pricing", "register:pools",
		"start:pricing", "start:pools",
		"close:pools", "close:pricing",
	}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v", trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %s, want %s", i, trace[i], want[i])
		}
	}
}

func TestApp_SharedServices(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Port: 8080}}
	a := New(cfg, logger.NewNop(), "test")

	if a.Services().Get(ServiceConfig).(*config.Config) != cfg {
		t.Error("config not registered")
	}
	if _, ok := a.AssetRegistry().Get("ETH"); !ok {
		t.Error("asset registry missing ETH")
	}
	if a.HTTPServer() == nil {
		t.Error("http server not created")
	}
}
