package vkframe

import (
	"context"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/shaderc"
)

type ShaderFormat int

const (
	ShaderSPIRV ShaderFormat = iota
	ShaderGLSL
)

// ShaderInfo describes one shader stage. Source takes precedence over Path.
type ShaderInfo struct {
	Stage  driver.ShaderStage
	Format ShaderFormat
	Path   string
	Source []byte
	// Entry defaults to "main".
	Entry string
}

// loadShaderCode returns the SPIR-V for info, compiling GLSL with the configured compiler.
func (c *Context) loadShaderCode(ctx context.Context, info ShaderInfo) ([]byte, error) {
	switch info.Format {
	case ShaderSPIRV:
		if info.Source != nil {
			return info.Source, shaderc.Validate(info.Source)
		}
		return shaderc.LoadFile(info.Path)
	case ShaderGLSL:
		compiler := &shaderc.Compiler{Path: c.options.ShaderCompiler}
		if info.Source != nil {
			return compiler.Compile(ctx, info.Stage, info.Source)
		}
		return compiler.CompileFile(ctx, info.Stage, info.Path)
	}
	return nil, errors.Errorf("unknown shader format %d", info.Format)
}

// createShaderModule loads info and wraps it in a native module.
func (c *Context) createShaderModule(ctx context.Context, info ShaderInfo) (driver.ShaderModule, error) {
	code, err := c.loadShaderCode(ctx, info)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s shader %s", info.Stage, info.Path)
	}
	module, err := c.device.NewShaderModule(code)
	if err != nil {
		return nil, creationFailed(err, "shader module")
	}
	return module, nil
}
