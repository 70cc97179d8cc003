// Copyright 2025 The go-segsort Authors. SPDX-License-Identifier: Apache-2.0

//go:build !amd64 && !arm64

package segsort

func targetName() string { return "scalar" }

func vectorBytes() int { return 16 }
