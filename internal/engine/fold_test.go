package engine

import (
	"math/big"
	"testing"
)

func record(method, input string) *callRecord {
	return &callRecord{
		address:   addrA,
		namespace: "default",
		method:    method,
		input:     input,
	}
}

func TestAccumulator_AppendsDistinctInputs(t *testing.T) {
	acc := newAccumulator()
	acc.fold(record("getBalance", "0x01"), CallResult{Method: "getBalance", Value: big.NewInt(1), Input: "0x01"})
	acc.fold(record("getBalance", "0x02"), CallResult{Method: "getBalance", Value: big.NewInt(2), Input: "0x02"})

	entries := acc.entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	v, _ := entries[0].Get("getBalance")
	if list := v.([]CallResult); len(list) != 2 {
		t.Errorf("variants = %d, want 2", len(list))
	}
}

func TestAccumulator_SameInputNotDuplicated(t *testing.T) {
	acc := newAccumulator()
	acc.fold(record("getBalance", "0x01"), CallResult{Method: "getBalance", Value: big.NewInt(1), Input: "0x01"})
	acc.fold(record("getBalance", "0x01"), CallResult{Method: "getBalance", Value: big.NewInt(1), Input: "0x01"})

	v, _ := acc.entries()[0].Get("getBalance")
	if list := v.([]CallResult); len(list) != 1 {
		t.Errorf("variants = %d, want 1", len(list))
	}
}

// An arg-less result is an idempotent singleton: it replaces whatever list
// the method already has instead of appending to it.
func TestAccumulator_ArglessReplaces(t *testing.T) {
	acc := newAccumulator()
	acc.fold(record("getPrice", "0x01"), CallResult{Method: "getPrice", Value: big.NewInt(1), Input: "0x01"})
	acc.fold(record("getPrice", ""), CallResult{Method: "getPrice", Value: big.NewInt(9)})

	v, _ := acc.entries()[0].Get("getPrice")
	list := v.([]CallResult)
	if len(list) != 1 {
		t.Fatalf("variants = %d, want 1 (arg-less replaces)", len(list))
	}
	if list[0].Value.(*big.Int).Int64() != 9 {
		t.Errorf("value = %v, want 9 (last settled wins)", list[0].Value)
	}
}

func TestAccumulator_FirstNamespaceWins(t *testing.T) {
	acc := newAccumulator()
	first := record("getPrice", "")
	first.namespace = "pricing"
	acc.fold(first, CallResult{Method: "getPrice", Value: big.NewInt(1)})

	second := record("count", "")
	second.namespace = "other"
	acc.fold(second, CallResult{Method: "count", Value: big.NewInt(2)})

	entries := acc.entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 (same address merges)", len(entries))
	}
	if entries[0].Namespace != "pricing" {
		t.Errorf("namespace = %s, want pricing (first seen)", entries[0].Namespace)
	}
}
