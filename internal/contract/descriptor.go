package contract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Descriptor is a parsed contract interface (ABI). It wraps the geth ABI
// with the original entry order preserved: geth keeps methods in a map, but
// callers expanding "all readable fields" expect them in declaration order.
type Descriptor struct {
	parsed abi.ABI
	raw    json.RawMessage
	order  []string // function names in ABI JSON order
}

// abiEntry captures the fields needed to recover entry order from ABI JSON.
type abiEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ParseDescriptor parses an ABI JSON array into a Descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	var entries []abiEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse ABI entries: %w", err)
	}

	order := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type == "function" && entry.Name != "" {
			order = append(order, entry.Name)
		}
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	return &Descriptor{
		parsed: parsed,
		raw:    raw,
		order:  order,
	}, nil
}

// JSON returns the original ABI JSON the descriptor was parsed from.
func (d *Descriptor) JSON() json.RawMessage {
	return d.raw
}

// Method returns the named method, or false if the interface does not have it.
func (d *Descriptor) Method(name string) (abi.Method, bool) {
	m, ok := d.parsed.Methods[name]
	return m, ok
}

// ReadableFields returns the names of zero-argument read-only methods, in
// declaration order. These are safe to call without an explicit method spec.
func (d *Descriptor) ReadableFields() []string {
	fields := make([]string, 0, len(d.order))
	for _, name := range d.order {
		m, ok := d.parsed.Methods[name]
		if !ok {
			continue
		}
		if m.IsConstant() && len(m.Inputs) == 0 {
			fields = append(fields, name)
		}
	}
	return fields
}

// Pack encodes a call to the named method with the given arguments.
// Arguments are coerced to the method's input types, so values decoded from
// JSON (strings, numbers) work alongside natively typed ones.
func (d *Descriptor) Pack(name string, args ...interface{}) ([]byte, error) {
	m, ok := d.parsed.Methods[name]
	if !ok {
		return nil, fmt.Errorf("method %s not found", name)
	}
	if len(args) != len(m.Inputs) {
		return nil, fmt.Errorf("method %s expects %d arguments, got %d", name, len(m.Inputs), len(args))
	}

	coerced := make([]interface{}, len(args))
	for i, arg := range args {
		v, err := coerceArg(m.Inputs[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("method %s argument %d: %w", name, i, err)
		}
		coerced[i] = v
	}

	return d.parsed.Pack(name, coerced...)
}

// Unpack decodes the return data of the named method.
func (d *Descriptor) Unpack(name string, data []byte) ([]interface{}, error) {
	return d.parsed.Unpack(name, data)
}
