package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transform.js")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestTransform_Apply(t *testing.T) {
	path := writeScript(t, `
		function transform(result) {
			return { count: result.length, entries: result };
		}
	`)

	transform, err := LoadTransform(path, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadTransform: %v", err)
	}

	out, err := transform.Apply(json.RawMessage(`[{"address":"0xaa"},{"address":"0xbb"}]`))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var decoded struct {
		Count   int              `json:"count"`
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Count != 2 || len(decoded.Entries) != 2 {
		t.Errorf("transformed = %s", out)
	}
}

func TestTransform_MissingFunction(t *testing.T) {
	path := writeScript(t, `var notATransform = 1;`)

	transform, err := LoadTransform(path, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadTransform: %v", err)
	}
	if _, err := transform.Apply(json.RawMessage(`[]`)); err == nil {
		t.Fatal("expected error for script without transform function")
	}
}

func TestTransform_CompileError(t *testing.T) {
	path := writeScript(t, `function transform( {`)
	if _, err := LoadTransform(path, time.Second, zerolog.Nop()); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestTransform_Timeout(t *testing.T) {
	path := writeScript(t, `
		function transform(result) {
			while (true) {}
		}
	`)

	transform, err := LoadTransform(path, 50*time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadTransform: %v", err)
	}
	if _, err := transform.Apply(json.RawMessage(`[]`)); err == nil {
		t.Fatal("expected interrupt for runaway script")
	}
}
