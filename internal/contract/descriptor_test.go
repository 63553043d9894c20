package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const testABI = `[
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"type":"function","name":"getPrice","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"event","name":"Transfer","inputs":[]}
]`

func mustParse(t *testing.T, abiJSON string) *Descriptor {
	t.Helper()
	desc, err := ParseDescriptor([]byte(abiJSON))
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	return desc
}

func TestParseDescriptor_Invalid(t *testing.T) {
	if _, err := ParseDescriptor([]byte(`{"not":"an abi"}`)); err == nil {
		t.Fatal("expected error for non-array ABI")
	}
}

func TestDescriptor_Method(t *testing.T) {
	desc := mustParse(t, testABI)

	m, ok := desc.Method("balanceOf")
	if !ok {
		t.Fatal("balanceOf not found")
	}
	if !m.IsConstant() {
		t.Error("balanceOf should be constant")
	}

	m, ok = desc.Method("transfer")
	if !ok {
		t.Fatal("transfer not found")
	}
	if m.IsConstant() {
		t.Error("transfer should not be constant")
	}

	if _, ok := desc.Method("nope"); ok {
		t.Error("unknown method should not resolve")
	}
}

// Readable fields are the zero-argument constant methods, in the order the
// ABI JSON declares them, which geth's method map does not preserve.
func TestDescriptor_ReadableFields(t *testing.T) {
	desc := mustParse(t, testABI)

	fields := desc.ReadableFields()
	if len(fields) != 2 || fields[0] != "symbol" || fields[1] != "getPrice" {
		t.Errorf("ReadableFields = %v, want [symbol getPrice]", fields)
	}
}

func TestDescriptor_Pack_CoercesJSONArgs(t *testing.T) {
	desc := mustParse(t, testABI)
	addr := "0x00000000000000000000000000000000000000cc"

	// Arguments as they arrive from JSON config: strings and numbers.
	fromJSON, err := desc.Pack("transfer", addr, float64(1000))
	if err != nil {
		t.Fatalf("Pack with JSON args: %v", err)
	}

	// Natively typed arguments must produce identical call data.
	native, err := desc.Pack("transfer", common.HexToAddress(addr), big.NewInt(1000))
	if err != nil {
		t.Fatalf("Pack with native args: %v", err)
	}

	if string(fromJSON) != string(native) {
		t.Error("coerced call data differs from natively typed call data")
	}
}

func TestDescriptor_Pack_DecimalAndHexStrings(t *testing.T) {
	desc := mustParse(t, testABI)
	addr := "0x00000000000000000000000000000000000000cc"

	dec, err := desc.Pack("transfer", addr, "255")
	if err != nil {
		t.Fatalf("Pack decimal string: %v", err)
	}
	hex, err := desc.Pack("transfer", addr, "0xff")
	if err != nil {
		t.Fatalf("Pack hex string: %v", err)
	}
	if string(dec) != string(hex) {
		t.Error("decimal and hex encodings of the same value differ")
	}
}

func TestDescriptor_Pack_Errors(t *testing.T) {
	desc := mustParse(t, testABI)

	if _, err := desc.Pack("nope"); err == nil {
		t.Error("expected error for unknown method")
	}
	if _, err := desc.Pack("balanceOf"); err == nil {
		t.Error("expected error for missing argument")
	}
	if _, err := desc.Pack("balanceOf", "not-an-address"); err == nil {
		t.Error("expected error for malformed address")
	}
	if _, err := desc.Pack("transfer", "0x00000000000000000000000000000000000000cc", 1.5); err == nil {
		t.Error("expected error for fractional number")
	}
}

func TestDescriptor_PackUnpackRoundTrip(t *testing.T) {
	desc := mustParse(t, testABI)

	data := common.LeftPadBytes(big.NewInt(42).Bytes(), 32)
	values, err := desc.Unpack("getPrice", data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("values = %d, want 1", len(values))
	}
	if values[0].(*big.Int).Int64() != 42 {
		t.Errorf("value = %v, want 42", values[0])
	}
}

func TestGroupSpec_IsRegistration(t *testing.T) {
	desc := mustParse(t, testABI)
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	reg := GroupSpec{Descriptor: desc, Addresses: []common.Address{addr}}
	if !reg.IsRegistration() {
		t.Error("descriptor with address list and no calls is a registration")
	}

	call := GroupSpec{Descriptor: desc, Addresses: []common.Address{addr}, Methods: []MethodSpec{{Name: "getPrice"}}}
	if call.IsRegistration() {
		t.Error("group with methods is a call request")
	}

	readable := GroupSpec{Descriptor: desc, Addresses: []common.Address{addr}, AllReadable: true}
	if readable.IsRegistration() {
		t.Error("allReadable group is a call request")
	}
}

func TestGroupSpec_EffectiveNamespace(t *testing.T) {
	g := GroupSpec{}
	if ns := g.EffectiveNamespace(); ns != DefaultNamespace {
		t.Errorf("namespace = %s, want %s", ns, DefaultNamespace)
	}
	g.Namespace = "pricing"
	if ns := g.EffectiveNamespace(); ns != "pricing" {
		t.Errorf("namespace = %s, want pricing", ns)
	}
}
