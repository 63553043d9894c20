// Package engine aggregates many independent contract read calls into a
// single JSON-RPC batch round trip and reassembles the responses into a
// caller-friendly result structure.
//
// Per Execute call the engine registers supplied interface descriptors,
// builds one outbound batch from the contract groups, dispatches it as a
// unit, folds the settled calls into address-keyed entries and applies the
// configured output shape. The interface cache and the read-once address
// marker live on the engine instance and persist across invocations;
// everything else is per-invocation state.
package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"batchcall/internal/abicache"
	"batchcall/internal/contract"
	"batchcall/internal/nodeclient"
)

// Options configure the engine's output shaping and observability.
type Options struct {
	// Simplify collapses single-valued method results to bare values
	Simplify bool

	// GroupByNamespace partitions the flat entry list by group namespace
	GroupByNamespace bool

	// LogExecution emits one log line per Execute call with the dispatched
	// call count and elapsed wall-clock time
	LogExecution bool
}

// Engine is the batched-read aggregation engine. It is bound to one node
// connection and one interface cache for its lifetime.
//
// A constant method of an address that was read by any prior invocation is
// silently omitted from later batches: its value is assumed immutable and
// already known to the caller. The marker is set at enqueue time, so a
// failed batch still counts as a read.
type Engine struct {
	caller   nodeclient.BatchCaller
	cache    *abicache.Cache
	opts     Options
	logger   zerolog.Logger
	readOnce map[common.Address]bool
}

// New creates an engine over the given node connection and interface cache
func New(caller nodeclient.BatchCaller, cache *abicache.Cache, opts Options, logger zerolog.Logger) *Engine {
	return &Engine{
		caller:   caller,
		cache:    cache,
		opts:     opts,
		logger:   logger.With().Str("component", "engine").Logger(),
		readOnce: make(map[common.Address]bool),
	}
}

// Execute runs one batched read over the given contract groups.
//
// Registration failures abort before any batch is built and are returned as
// a plain error. Failures of the batch itself — a rejected call, an
// encoding or decoding problem — resolve to a Result carrying an error
// descriptor instead: fail-fast, never partial. blockPin, when non-nil,
// pins every call to that block height instead of latest state.
func (e *Engine) Execute(ctx context.Context, groups []contract.GroupSpec, blockPin *big.Int) (*Result, error) {
	start := time.Now()

	// Descriptor registrations complete fully, in submission order, before
	// the batch is built.
	for i := range groups {
		group := &groups[i]
		if group.Descriptor == nil {
			continue
		}
		for _, address := range group.Addresses {
			if err := e.cache.Register(ctx, address, group.Descriptor); err != nil {
				return nil, err
			}
		}
	}

	var pin *hexutil.Big
	if blockPin != nil {
		pin = (*hexutil.Big)(blockPin)
	}

	plan, err := e.buildBatch(ctx, groups, pin)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	for address := range plan.toMark {
		e.readOnce[address] = true
	}

	if len(plan.elems) > 0 {
		if err := e.caller.BatchCallContext(ctx, plan.elems); err != nil {
			return errorResult(err.Error()), nil
		}
	}

	entries, err := reduce(plan)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if e.opts.Simplify {
		simplify(entries)
	}

	result := &Result{Calls: len(plan.elems)}
	if e.opts.GroupByNamespace {
		result.Grouped = groupByNamespace(entries)
	} else {
		result.Flat = entries
	}

	if e.opts.LogExecution {
		e.logger.Info().
			Int("calls", len(plan.elems)).
			Dur("elapsed", time.Since(start)).
			Msg("batch executed")
	}

	return result, nil
}
