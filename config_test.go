package vkframe

import (
	"testing"

	"github.com/celer/vkframe/driver"
)

func TestLoadOptions(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Options
	}{
		{
			name: "defaults",
			want: DefaultOptions(),
		},
		{
			name: "overrides",
			env: map[string]string{
				EnvValidation:     "1",
				EnvFramesInFlight: "3",
				EnvShaderCompiler: "/opt/vulkan/bin/glslc",
				EnvPresentMode:    "FIFO",
			},
			want: Options{
				Validation:     true,
				FramesInFlight: 3,
				ShaderCompiler: "/opt/vulkan/bin/glslc",
				PresentMode:    driver.PresentModeFIFO,
			},
		},
		{
			name: "malformed values are ignored",
			env: map[string]string{
				EnvFramesInFlight: "zero",
				EnvPresentMode:    "vsync",
				EnvValidation:     "off",
			},
			want: DefaultOptions(),
		},
		{
			name: "frames in flight must be positive",
			env:  map[string]string{EnvFramesInFlight: "0"},
			want: DefaultOptions(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := loadOptions(DefaultOptions(), func(k string) string { return tt.env[k] })
			if got != tt.want {
				t.Errorf("loadOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFramesInFlightOption(t *testing.T) {
	f := newFixture(t)
	opts := testOptions()
	opts.FramesInFlight = 3
	f.ctx.options = *opts
	sc, err := f.ctx.CreateSwapchain(f.win)
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Destroy()
	pool, err := f.ctx.CreateCommandPool()
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()
	loop, err := f.ctx.CreateFrameLoop(sc, pool)
	if err != nil {
		t.Fatal(err)
	}
	defer loop.Close()
	if n := len(loop.Fences()); n != 3 {
		t.Errorf("%d lanes, want 3", n)
	}
	if n := pool.Allocated(); n != 3 {
		t.Errorf("%d command buffers, want one per lane", n)
	}
}
