package engine

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// CallResult is the outcome of one dispatched call. Input carries the
// encoded call data only when explicit arguments were supplied, and together
// with the method name identifies the call for deduplication.
type CallResult struct {
	Method string        `json:"method"`
	Value  interface{}   `json:"value"`
	Input  string        `json:"input,omitempty"`
	Args   []interface{} `json:"args,omitempty"`
}

// AddressResult aggregates all method results for one contract address.
// Each method maps to an ordered list of CallResult variants (one per
// distinct argument signature), or to a bare value after simplification.
type AddressResult struct {
	Address   common.Address
	Namespace string

	methodOrder   []string
	methods       map[string]interface{}
	omitNamespace bool
}

func newAddressResult(address common.Address, namespace string) *AddressResult {
	return &AddressResult{
		Address:   address,
		Namespace: namespace,
		methods:   make(map[string]interface{}),
	}
}

// Methods returns the method names present, in first-seen order.
func (r *AddressResult) Methods() []string {
	return r.methodOrder
}

// Get returns the entry for a method: a []CallResult, or a bare value after
// simplification.
func (r *AddressResult) Get(method string) (interface{}, bool) {
	v, ok := r.methods[method]
	return v, ok
}

func (r *AddressResult) set(method string, v interface{}) {
	if _, ok := r.methods[method]; !ok {
		r.methodOrder = append(r.methodOrder, method)
	}
	r.methods[method] = v
}

// MarshalJSON flattens the entry into a single object:
// {"address": ..., "namespace": ..., "<method>": <list-or-value>, ...}
func (r *AddressResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.methods)+2)
	out["address"] = r.Address
	if !r.omitNamespace {
		out["namespace"] = r.Namespace
	}
	for name, v := range r.methods {
		out[name] = v
	}
	return json.Marshal(out)
}

// Result is the outcome of one Execute call: a flat entry list, a mapping
// from namespace to entries, or an error descriptor.
type Result struct {
	Err     string
	Flat    []*AddressResult
	Grouped map[string][]*AddressResult

	// Calls is the number of methods dispatched in the batch
	Calls int
}

// Failed reports whether the result carries an error instead of entries.
func (r *Result) Failed() bool {
	return r.Err != ""
}

// MarshalJSON renders the configured output shape, or {"error": ...}.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(map[string]string{"error": r.Err})
	}
	if r.Grouped != nil {
		return json.Marshal(r.Grouped)
	}
	if r.Flat == nil {
		return json.Marshal([]*AddressResult{})
	}
	return json.Marshal(r.Flat)
}

func errorResult(msg string) *Result {
	return &Result{Err: msg}
}
