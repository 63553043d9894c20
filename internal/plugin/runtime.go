package plugin

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// Runtime wraps a goja VM with the bindings transform scripts may use
type Runtime struct {
	vm     *goja.Runtime
	logger zerolog.Logger
}

// NewRuntime creates a new Runtime with all necessary bindings
func NewRuntime(logger zerolog.Logger) *Runtime {
	vm := goja.New()
	r := &Runtime{
		vm:     vm,
		logger: logger,
	}
	r.setupConsole()
	r.setupUtils()
	return r
}

// VM returns the underlying goja runtime
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// setupConsole creates console.log/error/warn/debug bindings
func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()

	log := func(emit func() *zerolog.Event) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			emit().Msgf("[transform] %v", args)
			return goja.Undefined()
		}
	}

	console.Set("log", log(func() *zerolog.Event { return r.logger.Info() }))
	console.Set("error", log(func() *zerolog.Event { return r.logger.Error() }))
	console.Set("warn", log(func() *zerolog.Event { return r.logger.Warn() }))
	console.Set("debug", log(func() *zerolog.Event { return r.logger.Debug() }))

	r.vm.Set("console", console)
}

// setupUtils creates utility functions for hex handling
func (r *Runtime) setupUtils() {
	utils := r.vm.NewObject()

	utils.Set("hexToBytes", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.ToValue("hexToBytes requires 1 argument"))
		}
		hexStr := strings.TrimPrefix(call.Arguments[0].String(), "0x")
		bytes, err := hex.DecodeString(hexStr)
		if err != nil {
			panic(r.vm.ToValue(fmt.Sprintf("invalid hex string: %v", err)))
		}
		return r.vm.ToValue(bytes)
	})

	utils.Set("bytesToHex", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.ToValue("bytesToHex requires 1 argument"))
		}
		b, ok := call.Arguments[0].Export().([]byte)
		if !ok {
			panic(r.vm.ToValue("bytesToHex requires a byte array"))
		}
		return r.vm.ToValue("0x" + hex.EncodeToString(b))
	})

	r.vm.Set("utils", utils)
}
