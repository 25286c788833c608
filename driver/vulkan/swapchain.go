package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

type Swapchain struct {
	device *Device
	native vk.Swapchain
}

func (d *Device) NewSwapchain(info driver.SwapchainInfo) (driver.Swapchain, error) {
	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          info.Surface.(*Surface).native,
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format),
		ImageColorSpace:  vk.ColorSpace(info.ColorSpace),
		ImageExtent:      extent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(info.Usage),
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if info.Old != nil {
		createInfo.OldSwapchain = info.Old.(*Swapchain).native
	}
	if families := distinct(info.QueueFamilies); len(families) > 1 {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(families))
		createInfo.PQueueFamilyIndices = families
	}

	var native vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.native, createInfo, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateSwapchainKHR")
	}
	return &Swapchain{device: d, native: native}, nil
}

func distinct(families []int) []uint32 {
	var ret []uint32
	seen := make(map[int]bool, len(families))
	for _, f := range families {
		if seen[f] {
			continue
		}
		seen[f] = true
		ret = append(ret, uint32(f))
	}
	return ret
}

// Image is a swapchain image. It is owned by the swapchain and never destroyed directly.
type Image struct {
	native vk.Image
}

func (s *Swapchain) Images() ([]driver.Image, error) {
	var count uint32
	if err := vk.Error(vk.GetSwapchainImages(s.device.native, s.native, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vkGetSwapchainImagesKHR")
	}
	images := make([]vk.Image, count)
	if err := vk.Error(vk.GetSwapchainImages(s.device.native, s.native, &count, images)); err != nil {
		return nil, errors.Wrap(err, "vkGetSwapchainImagesKHR")
	}
	ret := make([]driver.Image, count)
	for i, img := range images {
		ret[i] = &Image{native: img}
	}
	return ret, nil
}

// AcquireNextImage blocks without timeout. On vk.Suboptimal the index is valid and
// driver.ErrSuboptimal is returned with it.
func (s *Swapchain) AcquireNextImage(sem driver.Semaphore, f driver.Fence) (uint32, error) {
	var index uint32
	res := vk.AcquireNextImage(s.device.native, s.native, vk.MaxUint64, nativeSemaphore(sem), nativeFence(f), &index)
	return index, swapchainResult(res, "vkAcquireNextImageKHR")
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.device.native, s.native, nil)
}

type ImageView struct {
	device *Device
	native vk.ImageView
}

func (d *Device) NewImageView(image driver.Image, format driver.Format) (driver.ImageView, error) {
	mask := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if format.IsDepth() {
		mask = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	createInfo := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.(*Image).native,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: mask,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var native vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.native, createInfo, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateImageView")
	}
	return &ImageView{device: d, native: native}, nil
}

func (i *ImageView) Destroy() {
	vk.DestroyImageView(i.device.native, i.native, nil)
}
