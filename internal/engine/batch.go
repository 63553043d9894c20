package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"batchcall/internal/contract"
)

// callRecord binds one enqueued call to its correlation identity
// (address, method, encoded args) and to its slot in the outbound batch.
type callRecord struct {
	address   common.Address
	namespace string
	desc      *contract.Descriptor
	method    string
	args      []interface{}
	input     string
	elemIdx   int
}

// batchPlan is the single outbound batch plus the records needed to fold
// the responses back, built fresh for every Execute call.
type batchPlan struct {
	records []*callRecord
	elems   []rpc.BatchElem
	seen    map[string]bool
	toMark  map[common.Address]bool
}

func newBatchPlan() *batchPlan {
	return &batchPlan{
		seen:   make(map[string]bool),
		toMark: make(map[common.Address]bool),
	}
}

// buildBatch walks the contract groups and enqueues one call per surviving
// (address, method, args) tuple. Constant methods of addresses read in a
// prior invocation are dropped; the read marker itself is only collected
// here and applied by the caller after the walk, so suppression never acts
// within the batch being built.
func (e *Engine) buildBatch(ctx context.Context, groups []contract.GroupSpec, blockPin *hexutil.Big) (*batchPlan, error) {
	plan := newBatchPlan()

	blockTag := "latest"
	if blockPin != nil {
		blockTag = blockPin.String()
	}

	for i := range groups {
		group := &groups[i]
		if group.IsRegistration() {
			continue
		}
		namespace := group.EffectiveNamespace()

		if len(group.Contracts) > 0 {
			for _, handle := range group.Contracts {
				if err := e.enqueueTarget(plan, handle.Address, handle.Descriptor, group, namespace, blockTag); err != nil {
					return nil, err
				}
			}
			continue
		}

		for _, address := range group.Addresses {
			desc, _ := e.cache.Resolve(ctx, address)
			if err := e.enqueueTarget(plan, address, desc, group, namespace, blockTag); err != nil {
				return nil, err
			}
		}
	}

	return plan, nil
}

// enqueueTarget enqueues the effective method list for one call target.
func (e *Engine) enqueueTarget(plan *batchPlan, address common.Address, desc *contract.Descriptor, group *contract.GroupSpec, namespace, blockTag string) error {
	specs := group.Methods
	if group.AllReadable && desc != nil {
		expanded := make([]contract.MethodSpec, 0, len(specs))
		expanded = append(expanded, specs...)
		for _, name := range desc.ReadableFields() {
			expanded = append(expanded, contract.MethodSpec{Name: name})
		}
		specs = expanded
	}

	for _, spec := range specs {
		if err := e.enqueueCall(plan, address, desc, namespace, spec, blockTag); err != nil {
			return err
		}
	}

	// Addresses are marked as read once their method list is enqueued, not
	// when results arrive. A later failure of this batch still marks.
	plan.toMark[address] = true
	return nil
}

// enqueueCall enqueues a single method call, unless it is filtered: methods
// absent from the interface resolve to nothing, constant methods of
// previously read addresses are suppressed, and duplicate signatures within
// the batch collapse to one request.
func (e *Engine) enqueueCall(plan *batchPlan, address common.Address, desc *contract.Descriptor, namespace string, spec contract.MethodSpec, blockTag string) error {
	if desc == nil {
		return nil
	}
	method, ok := desc.Method(spec.Name)
	if !ok {
		return nil
	}
	if method.IsConstant() && e.readOnce[address] {
		return nil
	}

	data, err := desc.Pack(spec.Name, spec.Args...)
	if err != nil {
		return fmt.Errorf("failed to encode %s on %s: %w", spec.Name, address.Hex(), err)
	}

	input := ""
	if len(spec.Args) > 0 {
		input = hexutil.Encode(data)
	}

	key := address.Hex() + "|" + spec.Name + "|" + input
	if plan.seen[key] {
		return nil
	}
	plan.seen[key] = true

	record := &callRecord{
		address:   address,
		namespace: namespace,
		desc:      desc,
		method:    spec.Name,
		args:      spec.Args,
		input:     input,
		elemIdx:   len(plan.elems),
	}

	plan.elems = append(plan.elems, rpc.BatchElem{
		Method: "eth_call",
		Args: []interface{}{
			map[string]string{
				"to":   address.Hex(),
				"data": hexutil.Encode(data),
			},
			blockTag,
		},
		Result: new(hexutil.Bytes),
	})
	plan.records = append(plan.records, record)
	return nil
}
