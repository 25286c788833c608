// Command vkinfo prints the instance extensions, layers and physical devices the Vulkan
// loader reports.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	units "github.com/docker/go-units"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/driver/vulkan"
	"github.com/celer/vkframe/window/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	procAddr, release, err := glfw.Loader()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer release()

	drv, err := vulkan.Open(procAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := report(os.Stdout, drv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func list(w io.Writer, title string, data []string) {
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "-----------------------------\n")
	for _, d := range data {
		fmt.Fprintf(w, "\t%s\n", d)
	}
	fmt.Fprintf(w, "\n")
}

func queueFlags(f driver.QueueFlags) string {
	var s []string
	if f&driver.QueueGraphics != 0 {
		s = append(s, "graphics")
	}
	if f&driver.QueueCompute != 0 {
		s = append(s, "compute")
	}
	if f&driver.QueueTransfer != 0 {
		s = append(s, "transfer")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "|")
}

func showPhysicalDevice(w io.Writer, pd driver.PhysicalDevice) error {
	fmt.Fprintf(w, "%s (%s)\n", pd.Name(), pd.Type())
	fmt.Fprintf(w, "-----------------------------\n")
	fmt.Fprintf(w, "\tDevice local heap\t%s\n", units.BytesSize(float64(pd.DeviceLocalHeapSize())))

	fmt.Fprintf(w, "\n\tQueue Families\n")
	for _, qf := range pd.QueueFamilies() {
		fmt.Fprintf(w, "\t\t%d\t%s x%d\n", qf.Index, queueFlags(qf.Flags), qf.Count)
	}

	extensions, err := pd.Extensions()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n\tSupported Extensions\n")
	for _, ext := range extensions {
		fmt.Fprintf(w, "\t\t%s\n", ext)
	}
	fmt.Fprintf(w, "\n")
	return nil
}

// report writes everything drv can enumerate without a surface.
func report(w io.Writer, drv driver.Driver) error {
	extensions, err := drv.InstanceExtensions()
	if err != nil {
		return err
	}
	list(w, "Extensions", extensions)

	layers, err := drv.InstanceLayers()
	if err != nil {
		return err
	}
	list(w, "Layers", layers)

	instance, err := drv.NewInstance(driver.InstanceInfo{ApplicationName: "Info", EngineName: "vkframe"})
	if err != nil {
		return err
	}
	defer instance.Destroy()

	devices, err := instance.PhysicalDevices()
	if err != nil {
		return err
	}
	for _, pd := range devices {
		if err := showPhysicalDevice(w, pd); err != nil {
			return err
		}
	}
	return nil
}
