// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	vk "github.com/devblok/vulkan"
)

// AllocatedImage is a GPU image together with its backing memory, its
// view and the properties needed to use it. Ownership is tracked by
// whichever deletion queue its handles were pushed onto.
type AllocatedImage struct {
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Extent vk.Extent3D
	Format vk.Format
}

// transitionMask holds the access and stage masks one image layout
// transition barrier needs on each side.
type transitionMask struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
}

// transitionMasks selects barrier masks for a layout pair. The pairs
// the frame loop records are matched exactly; anything else falls back
// to a conservative full barrier.
func transitionMasks(oldLayout, newLayout vk.ImageLayout) transitionMask {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutGeneral:
		return transitionMask{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		}
	case oldLayout == vk.ImageLayoutGeneral && newLayout == vk.ImageLayoutTransferSrcOptimal:
		return transitionMask{
			srcAccess: vk.AccessFlags(vk.AccessShaderWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return transitionMask{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutPresentSrc:
		return transitionMask{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessMemoryReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		}
	default:
		return transitionMask{
			srcAccess: vk.AccessFlags(vk.AccessMemoryWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessMemoryWriteBit | vk.AccessMemoryReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		}
	}
}

// TransitionImage records a pipeline barrier changing the layout of
// the whole color aspect of image. It orders GPU work within the
// command stream only and never blocks the CPU.
func TransitionImage(cmd vk.CommandBuffer, image vk.Image, oldLayout, newLayout vk.ImageLayout) {
	masks := transitionMasks(oldLayout, newLayout)

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       masks.srcAccess,
		DstAccessMask:       masks.dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	vk.CmdPipelineBarrier(cmd,
		masks.srcStage, masks.dstStage,
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier})
}

// blitRegion maps the full source extent onto the full destination
// extent. Equal extents produce a 1:1 region.
func blitRegion(srcExtent, dstExtent vk.Extent2D) vk.ImageBlit {
	return vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: int32(srcExtent.Width), Y: int32(srcExtent.Height), Z: 1},
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		DstOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: int32(dstExtent.Width), Y: int32(dstExtent.Height), Z: 1},
		},
	}
}

// CopyImageToImage records a scaling blit of the whole source image
// into the whole destination image. Both images must already be in
// the transfer layout the blit expects.
func CopyImageToImage(cmd vk.CommandBuffer, source, destination vk.Image, srcExtent, dstExtent vk.Extent2D) {
	vk.CmdBlitImage(cmd,
		source, vk.ImageLayoutTransferSrcOptimal,
		destination, vk.ImageLayoutTransferDstOptimal,
		1, []vk.ImageBlit{blitRegion(srcExtent, dstExtent)},
		vk.FilterLinear)
}

// createAllocatedImage creates an image with dedicated device local
// memory and a color view over it.
func createAllocatedImage(device vk.Device, gpu vk.PhysicalDevice, extent vk.Extent3D, format vk.Format, usage vk.ImageUsageFlags) (AllocatedImage, error) {
	ici := vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		ImageType:   vk.ImageType2d,
		Format:      format,
		Extent:      extent,
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       usage,
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(device, &ici, nil, &image)); err != nil {
		return AllocatedImage{}, errors.New("vk.CreateImage(): " + err.Error())
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := findMemoryType(gpu, memoryRequirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(device, image, nil)
		return AllocatedImage{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(device, &mai, nil, &memory)); err != nil {
		vk.DestroyImage(device, image, nil)
		return AllocatedImage{}, errors.New("vk.AllocateMemory(): " + err.Error())
	}

	if err := vk.Error(vk.BindImageMemory(device, image, memory, 0)); err != nil {
		vk.FreeMemory(device, memory, nil)
		vk.DestroyImage(device, image, nil)
		return AllocatedImage{}, errors.New("vk.BindImageMemory(): " + err.Error())
	}

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

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(device, &ivci, nil, &view)); err != nil {
		vk.FreeMemory(device, memory, nil)
		vk.DestroyImage(device, image, nil)
		return AllocatedImage{}, errors.New("vk.CreateImageView(): " + err.Error())
	}

	return AllocatedImage{
		Image:  image,
		Memory: memory,
		View:   view,
		Extent: extent,
		Format: format,
	}, nil
}

func findMemoryType(gpu vk.PhysicalDevice, typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(gpu, &memoryProperties)
	memoryProperties.Deref()

	for idx := uint32(0); idx < memoryProperties.MemoryTypeCount; idx++ {
		if (typeBits & 1) == 1 {
			memoryProperties.MemoryTypes[idx].Deref()
			if (memoryProperties.MemoryTypes[idx].PropertyFlags & properties) == properties {
				return idx, nil
			}
		}
		typeBits >>= 1
	}
	return 0, errors.New("requested memory type not found")
}
