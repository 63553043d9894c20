package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// accumulator folds settled call results into address-keyed entries,
// preserving first-seen address order.
type accumulator struct {
	order  []common.Address
	byAddr map[common.Address]*AddressResult
}

func newAccumulator() *accumulator {
	return &accumulator{
		byAddr: make(map[common.Address]*AddressResult),
	}
}

// fold applies the correlation rule for one result:
//   - first result for an address creates its entry
//   - a new encoded input for a known method appends
//   - a result without encoded input replaces the method's list outright
func (a *accumulator) fold(record *callRecord, result CallResult) {
	entry, ok := a.byAddr[record.address]
	if !ok {
		entry = newAddressResult(record.address, record.namespace)
		a.byAddr[record.address] = entry
		a.order = append(a.order, record.address)
	}

	existing, ok := entry.Get(record.method)
	if !ok {
		entry.set(record.method, []CallResult{result})
		return
	}
	if result.Input == "" {
		entry.set(record.method, []CallResult{result})
		return
	}

	list, ok := existing.([]CallResult)
	if !ok {
		entry.set(record.method, []CallResult{result})
		return
	}
	for _, prev := range list {
		if prev.Input == result.Input {
			return
		}
	}
	entry.set(record.method, append(list, result))
}

// entries returns the folded address entries in first-seen order.
func (a *accumulator) entries() []*AddressResult {
	out := make([]*AddressResult, 0, len(a.order))
	for _, address := range a.order {
		out = append(out, a.byAddr[address])
	}
	return out
}

// reduce folds every settled call in the plan into address entries.
// Fail-fast: the first failed call aborts the whole reduction.
func reduce(plan *batchPlan) ([]*AddressResult, error) {
	acc := newAccumulator()

	for _, record := range plan.records {
		elem := &plan.elems[record.elemIdx]
		if elem.Error != nil {
			return nil, fmt.Errorf("%s on %s: %w", record.method, record.address.Hex(), elem.Error)
		}

		data := *elem.Result.(*hexutil.Bytes)
		values, err := record.desc.Unpack(record.method, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s on %s: %w", record.method, record.address.Hex(), err)
		}

		var value interface{}
		switch len(values) {
		case 0:
		case 1:
			value = values[0]
		default:
			value = values
		}

		acc.fold(record, CallResult{
			Method: record.method,
			Value:  value,
			Input:  record.input,
			Args:   record.args,
		})
	}

	return acc.entries(), nil
}
