// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package kernel

// Channel bits of a colour flag set.
const (
	FlagRed   = 1 << 0
	FlagGreen = 1 << 1
	FlagBlue  = 1 << 2

	FlagWhite = FlagRed | FlagGreen | FlagBlue
)

// ChannelMask spreads the three flag bits into the low bit of the R, G and B
// byte lanes of a packed 0x00BBGGRR word.
func ChannelMask(flags uint32) uint32 {
	return ((flags & FlagBlue) << 14) | ((flags & FlagGreen) << 7) | (flags & FlagRed)
}

// Colour encodes an averaged escape time as a packed RGB word.
//
// maxColours must be a power of two. Arithmetic is 32-bit unsigned, the same
// as the device kernels.
func Colour(avg, maxIter, maxColours, flags uint32) uint32 {
	c := (avg * maxColours / maxIter) & (maxColours - 1)
	return c * ChannelMask(flags)
}

// WorkerFlags returns the colour flags used by CPU worker id when
// per-worker colouring is enabled. The result is always in [1, 7].
func WorkerFlags(id int) uint32 {
	return uint32(id%7) + 1 //nolint:gosec // id is a non-negative worker index
}
