// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "testing"

func TestGroupCountCoversExtent(t *testing.T) {
	cases := []struct {
		size  uint32
		local uint32
		want  uint32
	}{
		{1700, 16, 107},
		{900, 16, 57},
		{1600, 16, 100},
		{1, 16, 1},
		{16, 16, 1},
		{17, 16, 2},
	}

	for _, tc := range cases {
		if got := groupCount(tc.size, tc.local); got != tc.want {
			t.Errorf("groupCount(%d, %d) = %d, want %d", tc.size, tc.local, got, tc.want)
		}
		// No pixel past the last group.
		if got := groupCount(tc.size, tc.local); got*tc.local < tc.size {
			t.Errorf("groupCount(%d, %d) leaves pixels uncovered", tc.size, tc.local)
		}
	}
}

func TestSliceUint32Reslices(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}

	words := SliceUint32(data)
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0] != 1 || words[1] != 0xffffffff {
		t.Errorf("unexpected words: %v", words)
	}
}

func TestSafeStringsAppendTerminator(t *testing.T) {
	safe := safeStrings([]string{"VK_KHR_swapchain"})
	if safe[0] != "VK_KHR_swapchain\x00" {
		t.Errorf("extension name not null terminated: %q", safe[0])
	}
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}
