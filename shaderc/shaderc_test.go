package shaderc

import (
	"context"
	"encoding/binary"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

func module(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[4*i:], w)
	}
	return b
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		ok   bool
	}{
		{"valid", module(Magic, 0x00010000, 0, 8, 0), true},
		{"short", module(Magic), false},
		{"unaligned", append(module(Magic, 0, 0, 0, 0), 1), false},
		{"magic", module(0xdeadbeef, 0, 0, 0, 0), false},
	}
	for _, tt := range tests {
		err := Validate(tt.code)
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidSPIRV) {
			t.Errorf("%s: error %v does not match ErrInvalidSPIRV", tt.name, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.spv")
	bad := filepath.Join(dir, "bad.spv")
	if err := os.WriteFile(good, module(Magic, 0x00010000, 0, 8, 0), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("#version 450"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(good); err != nil {
		t.Errorf("LoadFile(good) = %v", err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("LoadFile(bad) succeeded")
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.spv")); err == nil {
		t.Error("LoadFile(missing) succeeded")
	}
}

func TestKind(t *testing.T) {
	if k, _ := Kind(driver.ShaderStageVertex); k != "vert" {
		t.Errorf("vertex kind = %q", k)
	}
	if k, _ := Kind(driver.ShaderStageFragment); k != "frag" {
		t.Errorf("fragment kind = %q", k)
	}
	if _, err := Kind(driver.ShaderStage(0x40)); err == nil {
		t.Error("unknown stage accepted")
	}
}

// fakeCompiler writes a script that ignores its input and prints a fixed module.
func fakeCompiler(t *testing.T, out []byte, exit int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script compiler")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh")
	}
	dir := t.TempDir()
	payload := filepath.Join(dir, "out.spv")
	if err := os.WriteFile(payload, out, 0o644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "glslc")
	body := "#!/bin/sh\ncat > /dev/null\n"
	if exit != 0 {
		body += "echo 'shader.vert:1: error' >&2\nexit 1\n"
	} else {
		body += "cat " + payload + "\n"
	}
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return script
}

func TestCompile(t *testing.T) {
	want := module(Magic, 0x00010000, 0, 8, 0)
	c := &Compiler{Path: fakeCompiler(t, want, 0)}

	code, err := c.Compile(context.Background(), driver.ShaderStageVertex, []byte("#version 450\nvoid main() {}\n"))
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	if string(code) != string(want) {
		t.Errorf("Compile() returned %d bytes, want %d", len(code), len(want))
	}
}

func TestCompileFailure(t *testing.T) {
	c := &Compiler{Path: fakeCompiler(t, nil, 1)}
	if _, err := c.Compile(context.Background(), driver.ShaderStageFragment, []byte("broken")); err == nil {
		t.Fatal("Compile() succeeded for a failing compiler")
	}

	missing := &Compiler{Path: filepath.Join(t.TempDir(), "no-such-glslc")}
	if _, err := missing.Compile(context.Background(), driver.ShaderStageFragment, nil); err == nil {
		t.Fatal("Compile() succeeded without a compiler")
	}
}
