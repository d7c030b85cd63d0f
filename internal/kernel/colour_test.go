// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package kernel

import "testing"

func TestChannelMask(t *testing.T) {
	tests := []struct {
		flags uint32
		want  uint32
	}{
		{0, 0x000000},
		{FlagRed, 0x000001},
		{FlagGreen, 0x000100},
		{FlagBlue, 0x010000},
		{FlagRed | FlagGreen, 0x000101},
		{FlagWhite, 0x010101},
	}
	for _, tt := range tests {
		if got := ChannelMask(tt.flags); got != tt.want {
			t.Errorf("ChannelMask(%d) = %#06x, want %#06x", tt.flags, got, tt.want)
		}
	}
}

func TestColour(t *testing.T) {
	tests := []struct {
		name                        string
		avg, maxIter, colours, flag uint32
		want                        uint32
	}{
		{"black at zero", 0, 256, 256, FlagWhite, 0},
		{"full budget wraps to black", 256, 256, 256, FlagWhite, 0},
		{"grey", 100, 256, 256, FlagWhite, 0x646464},
		{"red only", 100, 256, 256, FlagRed, 0x000064},
		{"green only", 100, 256, 256, FlagGreen, 0x006400},
		{"blue only", 100, 256, 256, FlagBlue, 0x640000},
		{"no channels", 100, 256, 256, 0, 0},
		{"scaled", 50, 100, 256, FlagRed, 128},
		{"mask wraps", 300, 256, 256, FlagRed, 300 & 255},
		{"fewer colours", 100, 256, 16, FlagRed, (100 * 16 / 256) & 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Colour(tt.avg, tt.maxIter, tt.colours, tt.flag); got != tt.want {
				t.Errorf("Colour = %#06x, want %#06x", got, tt.want)
			}
		})
	}
}

func TestColourRespectsChannelMask(t *testing.T) {
	for flags := uint32(0); flags <= FlagWhite; flags++ {
		for avg := uint32(0); avg < 512; avg += 7 {
			w := Colour(avg, 512, 256, flags)
			for k := uint32(0); k < 3; k++ {
				lane := (w >> (8 * k)) & 0xFF
				if lane != 0 && flags&(1<<k) == 0 {
					t.Fatalf("flags=%d avg=%d: channel %d = %d but bit is clear", flags, avg, k, lane)
				}
			}
			if w>>24 != 0 {
				t.Fatalf("flags=%d avg=%d: reserved byte set in %#08x", flags, avg, w)
			}
		}
	}
}

func TestWorkerFlags(t *testing.T) {
	for id := 0; id < 30; id++ {
		f := WorkerFlags(id)
		if f < 1 || f > 7 {
			t.Fatalf("WorkerFlags(%d) = %d, want [1,7]", id, f)
		}
		if want := uint32(id%7) + 1; f != want {
			t.Errorf("WorkerFlags(%d) = %d, want %d", id, f, want)
		}
	}
}
