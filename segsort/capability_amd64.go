// Copyright 2025 The go-segsort Authors. SPDX-License-Identifier: Apache-2.0

//go:build amd64

package segsort

import "golang.org/x/sys/cpu"

func targetName() string {
	switch {
	case cpu.X86.HasAVX512F:
		return "avx512"
	case cpu.X86.HasAVX2:
		return "avx2"
	default:
		return "sse2"
	}
}

func vectorBytes() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 64
	case cpu.X86.HasAVX2:
		return 32
	default:
		return 16
	}
}
