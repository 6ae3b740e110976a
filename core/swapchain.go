// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// Swapchain holds the presentable surface chain and the parallel
// image and view sequences enumerated from it. It is replaced as a
// whole on rebuild, never patched.
type Swapchain struct {
	handle     vk.Swapchain
	format     vk.Format
	colorspace vk.ColorSpace
	extent     vk.Extent2D
	images     []vk.Image
	views      []vk.ImageView
}

// Extent returns the extent the surface accepted, which may differ
// from the one requested.
func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

// Format returns the color format of the presentable images.
func (s *Swapchain) Format() vk.Format {
	return s.format
}

// surfaceBounds are the extent constraints read out of the surface
// capabilities.
type surfaceBounds struct {
	current vk.Extent2D
	min     vk.Extent2D
	max     vk.Extent2D
}

// noConstraint marks a surface that lets the swapchain pick its own
// extent.
const noConstraint = ^uint32(0)

// clampExtent resolves the extent the swapchain will be created with.
// When the surface pins a current extent that one wins; otherwise the
// requested extent is clamped into the supported range.
func clampExtent(requested vk.Extent2D, bounds surfaceBounds) vk.Extent2D {
	if bounds.current.Width != noConstraint {
		return bounds.current
	}

	clamp := func(v, lo, hi uint32) uint32 {
		if hi != 0 && v > hi {
			v = hi
		}
		if v < lo {
			v = lo
		}
		return v
	}

	return vk.Extent2D{
		Width:  clamp(requested.Width, bounds.min.Width, bounds.max.Width),
		Height: clamp(requested.Height, bounds.min.Height, bounds.max.Height),
	}
}

// createSwapchain builds the presentation chain against the current
// surface: preferred B8G8R8A8 unorm format, FIFO presentation, usage
// flags allowing the presentable images to be blit destinations.
func (e *Engine) createSwapchain(width, height uint32) error {
	var surfaceCapabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(e.gpu, e.surface, &surfaceCapabilities)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	surfaceCapabilities.Deref()
	surfaceCapabilities.CurrentExtent.Deref()
	surfaceCapabilities.MinImageExtent.Deref()
	surfaceCapabilities.MaxImageExtent.Deref()

	format, colorspace, err := e.chooseSurfaceFormat()
	if err != nil {
		return err
	}

	extent := clampExtent(vk.Extent2D{Width: width, Height: height}, surfaceBounds{
		current: surfaceCapabilities.CurrentExtent,
		min:     surfaceCapabilities.MinImageExtent,
		max:     surfaceCapabilities.MaxImageExtent,
	})

	minImageCount := surfaceCapabilities.MinImageCount + 1
	if surfaceCapabilities.MaxImageCount != 0 && minImageCount > surfaceCapabilities.MaxImageCount {
		minImageCount = surfaceCapabilities.MaxImageCount
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if surfaceCapabilities.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          e.surface,
		MinImageCount:    minImageCount,
		ImageFormat:      format,
		ImageColorSpace:  colorspace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage: vk.ImageUsageFlags(
			vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(e.device, &scci, nil, &swapchain)); err != nil {
		return errors.New("vk.CreateSwapchain(): " + err.Error())
	}

	var imageCount uint32
	if err := vk.Error(vk.GetSwapchainImages(e.device, swapchain, &imageCount, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}
	images := make([]vk.Image, imageCount)
	if err := vk.Error(vk.GetSwapchainImages(e.device, swapchain, &imageCount, images)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}

	views := make([]vk.ImageView, imageCount)
	for idx, image := range images {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if err := vk.Error(vk.CreateImageView(e.device, &ivci, nil, &views[idx])); err != nil {
			return errors.New("vk.CreateImageView(): " + err.Error())
		}
	}

	e.swapchain = Swapchain{
		handle:     swapchain,
		format:     format,
		colorspace: colorspace,
		extent:     extent,
		images:     images,
		views:      views,
	}

	log.WithFields(log.Fields{
		"width":  extent.Width,
		"height": extent.Height,
		"images": imageCount,
	}).Info("swapchain created")

	return nil
}

// chooseSurfaceFormat scans the supported surface formats for the
// preferred B8G8R8A8 unorm / sRGB nonlinear pair, falling back to the
// first one the surface offers.
func (e *Engine) chooseSurfaceFormat() (vk.Format, vk.ColorSpace, error) {
	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(e.gpu, e.surface, &formatCount, nil)); err != nil {
		return 0, 0, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	if formatCount == 0 {
		return 0, 0, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): no surface formats")
	}

	surfaceFormats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(e.gpu, e.surface, &formatCount, surfaceFormats)); err != nil {
		return 0, 0, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}

	for i := range surfaceFormats {
		surfaceFormats[i].Deref()
		if surfaceFormats[i].Format == vk.FormatB8g8r8a8Unorm &&
			surfaceFormats[i].ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return surfaceFormats[i].Format, surfaceFormats[i].ColorSpace, nil
		}
	}
	return surfaceFormats[0].Format, surfaceFormats[0].ColorSpace, nil
}

// destroySwapchain tears down the views first, then the chain itself.
// The swapchain owns its images, they are not destroyed individually.
func (e *Engine) destroySwapchain() {
	for _, view := range e.swapchain.views {
		vk.DestroyImageView(e.device, view, nil)
	}
	vk.DestroySwapchain(e.device, e.swapchain.handle, nil)
	e.swapchain = Swapchain{}
}

// recreateSwapchain rebuilds the chain against the current drawable
// extent of the window, once the device has gone fully idle. The run
// loop invokes it when the window signals a size change; presentation
// results themselves are treated as fatal.
func (e *Engine) recreateSwapchain() error {
	vk.DeviceWaitIdle(e.device)

	width, height := e.window.DrawableExtent()
	return rebuildSwapchain(e.destroySwapchain, func() error {
		return e.createSwapchain(width, height)
	})
}

// rebuildSwapchain tears the old chain down before the new one is
// created; the surface cannot host both at once.
func rebuildSwapchain(destroy func(), create func() error) error {
	destroy()
	return create()
}
