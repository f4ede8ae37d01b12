package tools

import (
	"testing"
	"time"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NewSumTool()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tool, ok := reg.Get("calc_sum")
	if !ok || tool == nil {
		t.Fatal("expected calc_sum to be registered")
	}
	if !reg.Has("calc_sum") {
		t.Error("Has should report calc_sum")
	}
	if reg.Has("no_such_tool") {
		t.Error("Has should not report an unregistered tool")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NewSumTool()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := reg.Register(NewSumTool()); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestDefaultsRegistersAllTools(t *testing.T) {
	reg, err := Defaults(DefaultToolTimeout)
	if err != nil {
		t.Fatalf("Defaults failed: %v", err)
	}

	want := []string{
		"calc_sum",
		"get_crypto_price",
		"get_weather",
		"is_prime",
		"primes_between",
		"web_search",
	}
	names := reg.Names()
	if len(names) != len(want) {
		t.Fatalf("expected %d tools, got %d: %v", len(want), len(names), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("expected names[%d] = %q, got %q", i, name, names[i])
		}
	}
}

func TestDeclarationsSortedAndComplete(t *testing.T) {
	reg, err := Defaults(time.Second)
	if err != nil {
		t.Fatalf("Defaults failed: %v", err)
	}

	decls := reg.Declarations()
	if len(decls) != len(reg.Names()) {
		t.Fatalf("expected %d declarations, got %d", len(reg.Names()), len(decls))
	}
	for i := 1; i < len(decls); i++ {
		if decls[i-1].Name >= decls[i].Name {
			t.Fatalf("declarations not sorted: %q before %q", decls[i-1].Name, decls[i].Name)
		}
	}
	for _, d := range decls {
		if d.Description == "" {
			t.Errorf("tool %q has no description", d.Name)
		}
		if d.Parameters["type"] != "object" {
			t.Errorf("tool %q schema is not an object", d.Name)
		}
	}
}
