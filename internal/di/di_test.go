package di

import "testing"

type greeter struct{ name string }

func TestContainer_LazyFactoryRunsOnce(t *testing.T) {
	c := NewContainer()
	calls := 0
	tok := NewToken[*greeter]("test.greeter")

	RegisterToken(c, tok, func(ServiceRegistry) *greeter {
		calls++
		return &greeter{name: "pools"}
	})

	if calls != 0 {
		t.Fatalf("factory ran before first Get")
	}

	a := GetToken(c, tok)
	b := GetToken(c, tok)
	if a != b {
		t.Error("expected singleton instance")
	}
	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("prefix", "hello ")
	tok := NewToken[string]("test.message")
	RegisterToken(c, tok, func(sr ServiceRegistry) string {
		return sr.Get("prefix").(string) + "pools"
	})

	if got := GetToken(c, tok); got != "hello pools" {
		t.Errorf("got %q", got)
	}
}

func TestContainer_MissingPanics(t *testing.T) {
	c := NewContainer()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered service")
		}
	}()
	c.Get("nope")
}

func TestContainer_Has(t *testing.T) {
	c := NewContainer()
	c.Register("x", 1)
	if !c.Has("x") || c.Has("y") {
		t.Error("Has returned wrong answer")
	}
}
