// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	vk "github.com/devblok/vulkan"
)

// PoolSizeRatio declares how many descriptors of a type the pool holds
// relative to its set capacity. A ratio of 1 means one descriptor of
// that type per allocatable set.
type PoolSizeRatio struct {
	Type  vk.DescriptorType
	Ratio float32
}

// DescriptorAllocator hands out descriptor sets from a single fixed
// size pool. Capacity is decided at InitPool time and never grows;
// once it runs out Allocate fails with ErrPoolExhausted.
type DescriptorAllocator struct {
	pool      vk.DescriptorPool
	maxSets   uint32
	allocated uint32
}

// InitPool creates the backing pool, sized maxSets * ratio descriptors
// for every ratio given.
func (a *DescriptorAllocator) InitPool(device vk.Device, maxSets uint32, ratios []PoolSizeRatio) error {
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(ratios)),
		PPoolSizes:    poolSizes(maxSets, ratios),
	}

	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(device, &dpci, nil, &pool)); err != nil {
		return errors.New("vk.CreateDescriptorPool(): " + err.Error())
	}

	a.pool = pool
	a.maxSets = maxSets
	a.allocated = 0
	return nil
}

// Allocate returns one descriptor set with the given layout, or
// ErrPoolExhausted once the configured capacity is spent.
func (a *DescriptorAllocator) Allocate(device vk.Device, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	if err := a.reserve(); err != nil {
		return vk.NullDescriptorSet, err
	}

	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     a.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}

	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(device, &dsai, &set)); err != nil {
		a.unreserve()
		return vk.NullDescriptorSet, errors.New("vk.AllocateDescriptorSets(): " + err.Error())
	}
	return set, nil
}

// Remaining reports how many sets can still be allocated.
func (a *DescriptorAllocator) Remaining() uint32 {
	return a.maxSets - a.allocated
}

// DestroyPool releases the pool and implicitly every set allocated
// from it. No in-flight command buffer may still reference those sets.
func (a *DescriptorAllocator) DestroyPool(device vk.Device) {
	vk.DestroyDescriptorPool(device, a.pool, nil)
	a.pool = vk.NullDescriptorPool
	a.allocated = 0
	a.maxSets = 0
}

// Pool returns the underlying pool handle.
func (a *DescriptorAllocator) Pool() vk.DescriptorPool {
	return a.pool
}

func (a *DescriptorAllocator) reserve() error {
	if a.allocated >= a.maxSets {
		return ErrPoolExhausted
	}
	a.allocated++
	return nil
}

// unreserve returns a slot whose allocation did not materialise, so a
// failed API call does not eat pool capacity.
func (a *DescriptorAllocator) unreserve() {
	if a.allocated > 0 {
		a.allocated--
	}
}

func poolSizes(maxSets uint32, ratios []PoolSizeRatio) []vk.DescriptorPoolSize {
	sizes := make([]vk.DescriptorPoolSize, 0, len(ratios))
	for _, ratio := range ratios {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            ratio.Type,
			DescriptorCount: uint32(ratio.Ratio * float32(maxSets)),
		})
	}
	return sizes
}

// DescriptorLayoutBuilder collects bindings for a descriptor set
// layout before building it for a set of shader stages.
type DescriptorLayoutBuilder struct {
	bindings []vk.DescriptorSetLayoutBinding
}

// AddBinding registers one descriptor binding slot.
func (b *DescriptorLayoutBuilder) AddBinding(binding uint32, dtype vk.DescriptorType) {
	b.bindings = append(b.bindings, vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  dtype,
		DescriptorCount: 1,
	})
}

// Clear drops all registered bindings.
func (b *DescriptorLayoutBuilder) Clear() {
	b.bindings = nil
}

// Build creates the layout with every registered binding visible to
// the given shader stages.
func (b *DescriptorLayoutBuilder) Build(device vk.Device, stages vk.ShaderStageFlags) (vk.DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(b.bindings))
	copy(bindings, b.bindings)
	for i := range bindings {
		bindings[i].StageFlags |= stages
	}

	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(device, &dslci, nil, &layout)); err != nil {
		return vk.NullDescriptorSetLayout, errors.New("vk.CreateDescriptorSetLayout(): " + err.Error())
	}
	return layout, nil
}
