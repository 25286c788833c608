// Package shaderc turns GLSL into SPIR-V by running a glslc compatible compiler binary, and
// loads precompiled SPIR-V files.
package shaderc

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// Magic is the first word of every SPIR-V module.
const Magic = 0x07230203

// ErrInvalidSPIRV is returned for data that is not a SPIR-V module.
var ErrInvalidSPIRV = errors.New("invalid SPIR-V")

// Compiler runs an external compiler. The zero value runs "glslc" from PATH.
type Compiler struct {
	// Path of the compiler binary.
	Path string
	// Args are extra arguments placed before the input, for example "-O".
	Args []string
}

// Kind returns the glslc shader stage name for stage.
func Kind(stage driver.ShaderStage) (string, error) {
	switch stage {
	case driver.ShaderStageVertex:
		return "vert", nil
	case driver.ShaderStageFragment:
		return "frag", nil
	case driver.ShaderStageCompute:
		return "comp", nil
	}
	return "", errors.Errorf("unsupported shader stage %s", stage)
}

// Compile compiles GLSL source for stage. The source is passed on stdin and SPIR-V is read
// from stdout.
func (c *Compiler) Compile(ctx context.Context, stage driver.ShaderStage, source []byte) ([]byte, error) {
	kind, err := Kind(stage)
	if err != nil {
		return nil, err
	}
	path := c.Path
	if path == "" {
		path = "glslc"
	}
	args := append([]string{"-fshader-stage=" + kind}, c.Args...)
	args = append(args, "-o", "-", "-")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "compile %s shader: %s", kind, msg)
		}
		return nil, errors.Wrapf(err, "compile %s shader", kind)
	}
	code := stdout.Bytes()
	if err := Validate(code); err != nil {
		return nil, errors.Wrapf(err, "compile %s shader", kind)
	}
	return code, nil
}

// CompileFile compiles the GLSL file at path.
func (c *Compiler) CompileFile(ctx context.Context, stage driver.ShaderStage, path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader source")
	}
	return c.Compile(ctx, stage, source)
}

// LoadFile reads and validates a precompiled SPIR-V module.
func LoadFile(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read SPIR-V")
	}
	if err := Validate(code); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return code, nil
}

// Validate checks the size and magic number of a SPIR-V module.
func Validate(code []byte) error {
	if len(code) < 20 || len(code)%4 != 0 {
		return errors.Wrapf(ErrInvalidSPIRV, "%d bytes", len(code))
	}
	if binary.LittleEndian.Uint32(code) != Magic {
		return errors.Wrap(ErrInvalidSPIRV, "bad magic number")
	}
	return nil
}
