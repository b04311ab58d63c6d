/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cross-rs/xtask/config"
)

func runToTemp(t *testing.T) map[string]interface{} {
	t.Helper()
	outputPath := filepath.Join(t.TempDir(), "nested", "schema.json")
	originalOutput := *output
	*output = outputPath
	t.Cleanup(func() {
		*output = originalOutput
	})

	if err := run(); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema JSON is not valid: %v", err)
	}
	return schema
}

func TestRunSchemaContent(t *testing.T) {
	schema := runToTemp(t)

	if schema["$id"] != schemaID {
		t.Errorf("schema $id = %v, want %q", schema["$id"], schemaID)
	}
	if schema["title"] != "xtask configuration" {
		t.Errorf("schema title = %v", schema["title"])
	}
	if schema["envPrefix"] != config.EnvPrefix {
		t.Errorf("schema envPrefix = %v, want %q", schema["envPrefix"], config.EnvPrefix)
	}
	if _, ok := schema["$schema"]; !ok {
		t.Error("schema missing $schema field")
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("schema properties missing, got %T", schema["properties"])
	}
	for _, key := range []string{"log", "build"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema missing property %q", key)
		}
	}
}

func TestRunSchemaExamples(t *testing.T) {
	schema := runToTemp(t)

	examples, ok := schema["examples"].([]interface{})
	if !ok || len(examples) == 0 {
		t.Fatalf("schema examples missing, got %v", schema["examples"])
	}

	first, ok := examples[0].(map[string]interface{})
	if !ok {
		t.Fatalf("first example is not an object, got %T", examples[0])
	}
	build, ok := first["build"].(map[string]interface{})
	if !ok {
		t.Fatalf("example build is not an object, got %T", first["build"])
	}
	if build["repository"] != config.Default().Build.Repository {
		t.Errorf("example repository = %v", build["repository"])
	}
}

func TestRunUnwritableOutput(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	readOnlyDir := filepath.Join(t.TempDir(), "readonly")
	if err := os.Mkdir(readOnlyDir, 0500); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chmod(readOnlyDir, 0700)
	})

	originalOutput := *output
	*output = filepath.Join(readOnlyDir, "schema.json")
	t.Cleanup(func() {
		*output = originalOutput
	})

	if err := run(); err == nil {
		t.Fatal("expected error, got nil")
	}
}
