// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "testing"

func TestFrameRingRotation(t *testing.T) {
	var ring frameRing

	want := []int{0, 1, 0, 1, 0}
	for frame, slot := range want {
		if ring.current() != &ring.frames[slot] {
			t.Fatalf("frame %d: expected slot %d, ring is at %d", frame, slot, ring.index)
		}
		ring.advance()
	}
}

func TestFrameRingCurrentIsStablePerFrame(t *testing.T) {
	var ring frameRing

	first := ring.current()
	second := ring.current()
	if first != second {
		t.Error("current() must not advance the ring")
	}
}

// A slot's deletion queue is flushed once per time the slot comes
// around, and only resources queued on that slot are released then.
func TestFrameSlotQueuesFlushIndependently(t *testing.T) {
	var ring frameRing
	flushed := make(map[int][]DeletionItem)

	for i := range ring.frames {
		slot := i
		ring.frames[i].deletionQueue = &DeletionQueue{
			destroy: func(item DeletionItem) {
				flushed[slot] = append(flushed[slot], item)
			},
		}
	}

	// Frame 0 retires a pipeline on slot 0, frame 1 an image on
	// slot 1. Each flush on slot reuse must only touch its own.
	ring.current().deletionQueue.Push(ResourcePipeline, "p0")
	ring.advance()
	ring.current().deletionQueue.Push(ResourceImage, "i1")
	ring.advance()

	ring.current().deletionQueue.Flush()
	if len(flushed[0]) != 1 || flushed[0][0].Kind != ResourcePipeline {
		t.Fatalf("slot 0 flush released %+v", flushed[0])
	}
	if len(flushed[1]) != 0 {
		t.Fatalf("slot 1 flushed early: %+v", flushed[1])
	}

	ring.advance()
	ring.current().deletionQueue.Flush()
	if len(flushed[1]) != 1 || flushed[1][0].Kind != ResourceImage {
		t.Fatalf("slot 1 flush released %+v", flushed[1])
	}
}

func TestFrameSlotQueueFlushedOncePerReuse(t *testing.T) {
	var ring frameRing
	var releases int

	ring.frames[0].deletionQueue = &DeletionQueue{
		destroy: func(DeletionItem) { releases++ },
	}
	ring.frames[1].deletionQueue = &DeletionQueue{
		destroy: func(DeletionItem) { releases++ },
	}

	ring.current().deletionQueue.Push(ResourceSampler, "s")

	// Two full rotations; the item must be released exactly once.
	for i := 0; i < 2*FrameOverlap; i++ {
		ring.current().deletionQueue.Flush()
		ring.advance()
	}

	if releases != 1 {
		t.Errorf("expected exactly one release, got %d", releases)
	}
}
