// Package plugin runs user-supplied JavaScript transform scripts over the
// shaped result of a batch execution. A script defines a global
// transform(result) function; the returned value replaces the result.
package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// DefaultExecutionTimeout bounds a single transform run
const DefaultExecutionTimeout = 5 * time.Second

// Transform is a compiled transform script
type Transform struct {
	name    string
	program *goja.Program
	timeout time.Duration
	logger  zerolog.Logger
}

// LoadTransform reads and compiles a transform script from a file
func LoadTransform(path string, timeout time.Duration, logger zerolog.Logger) (*Transform, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transform script: %w", err)
	}

	program, err := goja.Compile(path, string(content), true)
	if err != nil {
		return nil, fmt.Errorf("failed to compile transform script: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultExecutionTimeout
	}

	return &Transform{
		name:    path,
		program: program,
		timeout: timeout,
		logger:  logger.With().Str("component", "transform").Logger(),
	}, nil
}

// Apply runs the transform over a JSON document and returns the transformed
// document. Each call runs in a fresh VM.
func (t *Transform) Apply(doc json.RawMessage) (json.RawMessage, error) {
	runtime := NewRuntime(t.logger)
	vm := runtime.VM()

	timer := time.AfterFunc(t.timeout, func() {
		vm.Interrupt("transform timeout")
	})
	defer timer.Stop()

	if _, err := vm.RunProgram(t.program); err != nil {
		return nil, fmt.Errorf("transform script failed: %w", err)
	}

	fn, ok := goja.AssertFunction(vm.Get("transform"))
	if !ok {
		return nil, fmt.Errorf("transform script does not define a transform function")
	}

	var input interface{}
	if err := json.Unmarshal(doc, &input); err != nil {
		return nil, fmt.Errorf("failed to decode result for transform: %w", err)
	}

	out, err := fn(goja.Undefined(), vm.ToValue(input))
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}

	encoded, err := json.Marshal(out.Export())
	if err != nil {
		return nil, fmt.Errorf("failed to encode transformed result: %w", err)
	}
	return encoded, nil
}
