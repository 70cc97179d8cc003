// Copyright 2025 The go-segsort Authors. SPDX-License-Identifier: Apache-2.0

//go:build arm64

package segsort

import "golang.org/x/sys/cpu"

func targetName() string {
	if cpu.ARM64.HasSVE {
		return "sve"
	}
	return "neon"
}

func vectorBytes() int {
	// NEON is fixed 128-bit; SVE width is not exposed here, assume 256-bit.
	if cpu.ARM64.HasSVE {
		return 32
	}
	return 16
}
