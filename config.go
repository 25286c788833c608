package vkframe

import (
	"os"
	"strconv"
	"strings"

	"github.com/celer/vkframe/driver"
)

// Environment variables read by LoadOptions.
const (
	EnvValidation     = "VKFRAME_VALIDATION"
	EnvFramesInFlight = "VKFRAME_FRAMES_IN_FLIGHT"
	EnvShaderCompiler = "VKFRAME_SHADER_COMPILER"
	EnvPresentMode    = "VKFRAME_PRESENT_MODE"
)

// DefaultFramesInFlight is the number of frame lanes the CPU may prepare ahead of the GPU.
const DefaultFramesInFlight = 2

// Options are tunables that may be overridden from the environment.
type Options struct {
	Validation     bool
	FramesInFlight int
	// ShaderCompiler is the glslc compatible binary used for GLSL sources.
	ShaderCompiler string
	// PresentMode is preferred when the surface supports it; FIFO is the fallback.
	PresentMode driver.PresentMode
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		Validation:     false,
		FramesInFlight: DefaultFramesInFlight,
		ShaderCompiler: "glslc",
		PresentMode:    driver.PresentModeMailbox,
	}
}

// LoadOptions applies environment overrides on top of base. Malformed values are logged and
// ignored.
func LoadOptions(base Options) Options {
	return loadOptions(base, os.Getenv)
}

func loadOptions(o Options, getenv func(string) string) Options {
	if v := getenv(EnvValidation); v != "" {
		switch strings.ToLower(v) {
		case "0", "false", "off", "no":
			o.Validation = false
		default:
			o.Validation = true
		}
	}
	if v := getenv(EnvFramesInFlight); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			Logger().Error("ignoring invalid "+EnvFramesInFlight, "value", v)
		} else {
			o.FramesInFlight = n
		}
	}
	if v := getenv(EnvShaderCompiler); v != "" {
		o.ShaderCompiler = v
	}
	if v := getenv(EnvPresentMode); v != "" {
		mode, ok := parsePresentMode(v)
		if !ok {
			Logger().Error("ignoring invalid "+EnvPresentMode, "value", v)
		} else {
			o.PresentMode = mode
		}
	}
	return o
}

func parsePresentMode(s string) (driver.PresentMode, bool) {
	for _, m := range []driver.PresentMode{
		driver.PresentModeImmediate,
		driver.PresentModeMailbox,
		driver.PresentModeFIFO,
		driver.PresentModeFIFORelaxed,
	} {
		if strings.EqualFold(s, m.String()) {
			return m, true
		}
	}
	return 0, false
}
