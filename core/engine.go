// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"sync/atomic"
	"time"
	"unsafe"

	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/tome/device"
)

// gpuTimeout bounds every CPU blocking wait on the device. Blowing it
// means the device is hung or lost and is escalated as fatal, never
// retried.
const gpuTimeout = uint(time.Second)

// backgroundShader is the compute shader drawn into the render target
// every frame.
const backgroundShader = "gradient"

// computeLocalSize is the work group edge length the background
// shader declares.
const computeLocalSize = 16

// engineLive guards against a second concurrent engine in the
// process.
var engineLive int32

// Engine owns the frame execution core: device and queue, swapchain,
// draw target, frame ring and the background compute pipeline. It is
// driven by exactly one goroutine.
type Engine struct {
	cfg    Configuration
	window Window
	time   Time

	initialised bool
	frameNumber int

	instance Instance
	surface  vk.Surface

	gpu                 vk.PhysicalDevice
	device              vk.Device
	graphicsQueue       vk.Queue
	graphicsQueueFamily uint32

	swapchain Swapchain

	drawImage  AllocatedImage
	drawExtent vk.Extent2D

	ring          frameRing
	deletionQueue *DeletionQueue

	descriptorAllocator       DescriptorAllocator
	drawImageDescriptorLayout vk.DescriptorSetLayout
	drawImageDescriptors      vk.DescriptorSet

	compiler *CompilerSession

	gradientPipelineLayout vk.PipelineLayout
	gradientPipeline       vk.Pipeline
	backgroundConstants    ComputePushConstants
}

// NewEngine creates an engine bound to the given window. Only one
// engine may be alive per process; a second construction attempt
// fails with ErrEngineExists until the first one is cleaned up.
func NewEngine(window Window, cfg Configuration) (*Engine, error) {
	if !atomic.CompareAndSwapInt32(&engineLive, 0, 1) {
		return nil, ErrEngineExists
	}

	return &Engine{
		cfg:    cfg,
		window: window,
		time:   NewTime(cfg.Time),
		backgroundConstants: ComputePushConstants{
			Data1: glm.Vec4{1, 0, 0, 1},
			Data2: glm.Vec4{0, 0, 1, 1},
		},
	}, nil
}

// Init brings up the whole rendering core in dependency order:
// instance and device, swapchain and draw target, per frame commands
// and sync objects, descriptors, the shader compiler session and the
// background pipeline. On error the engine stays un-initialised and
// Draw/Run refuse to work; Cleanup is then a no-op.
func (e *Engine) Init() error {
	if e.initialised {
		return errors.New("engine is already initialised")
	}

	if err := e.initVulkan(); err != nil {
		return err
	}
	if err := e.initSwapchain(); err != nil {
		return err
	}
	if err := e.initCommands(); err != nil {
		return err
	}
	if err := e.initSyncStructures(); err != nil {
		return err
	}
	if err := e.initDescriptors(); err != nil {
		return err
	}
	e.initShaderCompiler()
	if err := e.initPipelines(); err != nil {
		return err
	}

	e.initialised = true
	log.Info("engine initialised")
	return nil
}

func (e *Engine) initVulkan() error {
	instance, err := NewVulkanInstance(DefaultApplicationInfo, e.window.ProcAddr(), InstanceConfiguration{
		DebugMode:  e.cfg.Renderer.Debug,
		Extensions: e.window.InstanceExtensions(),
	})
	if err != nil {
		return err
	}
	e.instance = instance

	srf, err := e.window.CreateSurface(instance.Inner())
	if err != nil {
		instance.Destroy()
		return errors.New("window.CreateSurface(): " + err.Error())
	}
	e.surface = vk.SurfaceFromPointer(uintptr(srf))

	gpu, err := device.Select(instance.AvailableDevices(), e.surface)
	if err != nil {
		return err
	}
	e.gpu = gpu

	queueFamily, err := device.GraphicsQueueFamily(gpu, e.surface)
	if err != nil {
		return err
	}
	e.graphicsQueueFamily = queueFamily

	dci := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: queueFamily,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(e.cfg.Renderer.DeviceExtensions)),
		PpEnabledExtensionNames: safeStrings(e.cfg.Renderer.DeviceExtensions),
	}

	var logicalDevice vk.Device
	if err := vk.Error(vk.CreateDevice(gpu, &dci, nil, &logicalDevice)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	e.device = logicalDevice
	e.deletionQueue = NewDeletionQueue(logicalDevice)

	var queue vk.Queue
	vk.GetDeviceQueue(logicalDevice, queueFamily, 0, &queue)
	e.graphicsQueue = queue

	for _, info := range device.Info([]vk.PhysicalDevice{gpu}) {
		log.WithFields(log.Fields{
			"name":   info.Name,
			"memory": uint64(info.Memory),
		}).Info("selected rendering device")
	}
	return nil
}

// initSwapchain creates the presentation chain and the persistent
// draw target image the compute pass writes into.
func (e *Engine) initSwapchain() error {
	width, height := e.window.DrawableExtent()
	if err := e.createSwapchain(width, height); err != nil {
		return err
	}

	drawImage, err := createAllocatedImage(e.device, e.gpu,
		vk.Extent3D{Width: width, Height: height, Depth: 1},
		vk.FormatR16g16b16a16Sfloat,
		vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit|
			vk.ImageUsageTransferDstBit|
			vk.ImageUsageStorageBit|
			vk.ImageUsageColorAttachmentBit))
	if err != nil {
		return err
	}
	e.drawImage = drawImage

	e.deletionQueue.Push(ResourceImage, drawImage.Image)
	e.deletionQueue.Push(ResourceDeviceMemory, drawImage.Memory)
	e.deletionQueue.Push(ResourceImageView, drawImage.View)
	return nil
}

func (e *Engine) initDescriptors() error {
	err := e.descriptorAllocator.InitPool(e.device, 10, []PoolSizeRatio{
		{Type: vk.DescriptorTypeStorageImage, Ratio: 1},
	})
	if err != nil {
		return err
	}

	var builder DescriptorLayoutBuilder
	builder.AddBinding(0, vk.DescriptorTypeStorageImage)
	layout, err := builder.Build(e.device, vk.ShaderStageFlags(vk.ShaderStageComputeBit))
	if err != nil {
		return err
	}
	e.drawImageDescriptorLayout = layout

	set, err := e.descriptorAllocator.Allocate(e.device, layout)
	if err != nil {
		return err
	}
	e.drawImageDescriptors = set

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageImage,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   e.drawImage.View,
			ImageLayout: vk.ImageLayoutGeneral,
		}},
	}
	vk.UpdateDescriptorSets(e.device, 1, []vk.WriteDescriptorSet{write}, 0, nil)

	e.deletionQueue.Push(ResourceDescriptorPool, e.descriptorAllocator.Pool())
	e.deletionQueue.Push(ResourceDescriptorSetLayout, layout)
	return nil
}

func (e *Engine) initShaderCompiler() {
	e.compiler = NewCompilerSession(e.cfg.Shaders)
	log.WithField("paths", e.cfg.Shaders.SearchPaths).Info("shader compiler session ready")
}

func (e *Engine) initPipelines() error {
	return e.initBackgroundPipelines()
}

// initBackgroundPipelines builds the compute pipeline for the
// background pass. A missing or invalid shader binary is the one
// recoverable failure in the core: the build is skipped, no pipeline
// is bound and the draw path simply dispatches nothing.
func (e *Engine) initBackgroundPipelines() error {
	module, err := LoadShaderModule(backgroundShader, e.device, e.compiler)
	if err != nil {
		log.WithError(err).Warn("background shader unavailable, compute pass disabled")
		return nil
	}

	layout, pipeline, err := buildComputePipeline(e.device,
		[]vk.DescriptorSetLayout{e.drawImageDescriptorLayout},
		module,
		[]vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageComputeBit),
			Offset:     0,
			Size:       ComputePushConstantsSize,
		}})
	vk.DestroyShaderModule(e.device, module, nil)
	if err != nil {
		return err
	}

	e.gradientPipelineLayout = layout
	e.gradientPipeline = pipeline

	e.deletionQueue.Push(ResourcePipelineLayout, layout)
	e.deletionQueue.Push(ResourcePipeline, pipeline)
	return nil
}

// Draw executes one frame: wait out the slot's previous GPU work,
// reclaim its deferred resources, record the compute pass and the
// copy into the acquired presentable image, submit and present.
func (e *Engine) Draw() error {
	if !e.initialised {
		return ErrNotInitialised
	}

	frame := e.ring.current()

	// The fence is the sole device keeping the CPU out of resources
	// the GPU still reads. Everything below is unsafe before it fires.
	if err := vk.Error(vk.WaitForFences(e.device, 1, []vk.Fence{frame.renderFence}, vk.True, gpuTimeout)); err != nil {
		return errors.New("vk.WaitForFences(): " + err.Error())
	}
	frame.deletionQueue.Flush()

	if err := vk.Error(vk.ResetFences(e.device, 1, []vk.Fence{frame.renderFence})); err != nil {
		return errors.New("vk.ResetFences(): " + err.Error())
	}

	var imageIndex uint32
	if err := vk.Error(vk.AcquireNextImage(e.device, e.swapchain.handle, gpuTimeout,
		frame.swapchainSemaphore, vk.NullFence, &imageIndex)); err != nil {
		return errors.New("vk.AcquireNextImage(): " + err.Error())
	}

	cmd := frame.mainCommandBuffer
	if err := vk.Error(vk.ResetCommandBuffer(cmd, 0)); err != nil {
		return errors.New("vk.ResetCommandBuffer(): " + err.Error())
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmd, &cbbi)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}

	e.drawExtent = vk.Extent2D{
		Width:  e.drawImage.Extent.Width,
		Height: e.drawImage.Extent.Height,
	}

	TransitionImage(cmd, e.drawImage.Image, vk.ImageLayoutUndefined, vk.ImageLayoutGeneral)

	e.drawBackground(cmd)

	TransitionImage(cmd, e.drawImage.Image, vk.ImageLayoutGeneral, vk.ImageLayoutTransferSrcOptimal)
	TransitionImage(cmd, e.swapchain.images[imageIndex], vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)

	CopyImageToImage(cmd, e.drawImage.Image, e.swapchain.images[imageIndex], e.drawExtent, e.swapchain.extent)

	TransitionImage(cmd, e.swapchain.images[imageIndex], vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutPresentSrc)

	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.swapchainSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.renderSemaphore},
	}
	if err := vk.Error(vk.QueueSubmit(e.graphicsQueue, 1, []vk.SubmitInfo{submit}, frame.renderFence)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.renderSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{e.swapchain.handle},
		PImageIndices:      []uint32{imageIndex},
	}
	if err := vk.Error(vk.QueuePresent(e.graphicsQueue, &presentInfo)); err != nil {
		return errors.New("vk.QueuePresent(): " + err.Error())
	}

	e.frameNumber++
	e.ring.advance()
	return nil
}

// drawBackground records the compute dispatch covering the whole draw
// extent. Without a pipeline (shader failed to load) it records
// nothing.
func (e *Engine) drawBackground(cmd vk.CommandBuffer) {
	if e.gradientPipeline == vk.NullPipeline {
		return
	}

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointCompute, e.gradientPipeline)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointCompute, e.gradientPipelineLayout,
		0, 1, []vk.DescriptorSet{e.drawImageDescriptors}, 0, nil)

	constants := e.backgroundConstants
	vk.CmdPushConstants(cmd, e.gradientPipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		0, ComputePushConstantsSize, unsafe.Pointer(&constants))

	vk.CmdDispatch(cmd,
		groupCount(e.drawExtent.Width, computeLocalSize),
		groupCount(e.drawExtent.Height, computeLocalSize),
		1)
}

// Run drives the frame loop until the window requests a close. Frame
// pacing comes from the configured FPS ticker; events are pumped once
// per iteration before drawing.
func (e *Engine) Run() error {
	if !e.initialised {
		return ErrNotInitialised
	}

	for {
		<-e.time.FpsTicker().C

		e.window.PumpEvents()
		if e.window.ShouldClose() {
			log.Info("close requested, leaving frame loop")
			return nil
		}

		if e.window.SizeChanged() {
			log.Info("drawable size changed, rebuilding swapchain")
			if err := e.recreateSwapchain(); err != nil {
				return err
			}
		}

		if err := e.Draw(); err != nil {
			return err
		}
	}
}

// Cleanup tears the core down in reverse initialisation order. It
// waits for the device to go fully idle first, because objects
// outside the frame ring have no fence of their own. Calling it on a
// never initialised engine is a no-op beyond releasing the instance
// guard.
func (e *Engine) Cleanup() {
	defer atomic.StoreInt32(&engineLive, 0)

	if !e.initialised {
		return
	}

	vk.DeviceWaitIdle(e.device)

	e.destroyFrameData()
	e.deletionQueue.Flush()
	e.destroySwapchain()

	vk.DestroySurface(e.instance.Inner().(vk.Instance), e.surface, nil)
	vk.DestroyDevice(e.device, nil)
	e.instance.Destroy()
	e.time.Stop()

	e.initialised = false
	log.Info("engine cleaned up")
}

// FrameNumber returns the number of frames drawn so far.
func (e *Engine) FrameNumber() int {
	return e.frameNumber
}
