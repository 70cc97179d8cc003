// Copyright 2025 The go-segsort Authors. SPDX-License-Identifier: Apache-2.0

// Package stream provides the asynchronous execution substrate for the
// segmented sort engine. A Stream is an ordered queue of kernel launches:
// kernels submitted to one stream execute in submission order relative to
// each other, but asynchronously relative to the submitting goroutine.
//
// Inside one kernel, execution groups are independent and are distributed
// over a persistent worker pool; there is no ordering guarantee between
// groups of the same kernel.
//
// Usage:
//
//	s := stream.New()
//	defer s.Close()
//
//	s.Launch(stream.Kernel{Name: "fill", Groups: 64, Run: fillGroup})
//	s.Launch(stream.Kernel{Name: "scan", Groups: 1, Run: scanAll})
//	if err := s.Synchronize(); err != nil {
//	    // the stream is faulted and must be re-created
//	}
package stream

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"
)

var log = logging.Logger("segsort/stream")

// ErrFaulted is returned by Synchronize and Launch after any kernel on the
// stream has failed. A faulted stream never recovers; callers must create a
// new one.
var ErrFaulted = errors.New("stream: faulted")

// ErrClosed is returned when submitting to a closed stream.
var ErrClosed = errors.New("stream: closed")

// Kernel is a single launch: Groups independent execution groups, each
// running Run exactly once with its group index. Run must not retain
// references past its return.
type Kernel struct {
	Name   string
	Groups int
	Run    func(group int) error
}

type submission struct {
	kernel Kernel
	sync   chan error // non-nil for synchronization points
}

// Stream is an ordered asynchronous kernel queue over a persistent worker
// pool. The zero value is not usable; use New or Default.
type Stream struct {
	workers int
	subC    chan submission

	closeOnce sync.Once
	closed    atomic.Bool

	// fault holds the first kernel error. Once set, subsequent kernels are
	// dropped and every synchronization reports the fault.
	fault atomic.Pointer[error]
}

// Option configures a Stream.
type Option func(*Stream)

// WithWorkers sets the number of worker goroutines used to execute the
// groups of each kernel. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a stream and starts its dispatcher. The stream owns a small,
// fixed set of goroutines until Close is called.
func New(opts ...Option) *Stream {
	s := &Stream{
		workers: runtime.GOMAXPROCS(0),
		subC:    make(chan submission, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.dispatch()
	return s
}

var (
	defaultOnce   sync.Once
	defaultStream *Stream
)

// Default returns the shared process-wide stream, creating it on first use.
// It is never closed.
func Default() *Stream {
	defaultOnce.Do(func() {
		defaultStream = New()
	})
	return defaultStream
}

// dispatch executes submissions strictly in FIFO order.
func (s *Stream) dispatch() {
	for sub := range s.subC {
		if sub.sync != nil {
			sub.sync <- s.Err()
			continue
		}
		if s.Err() != nil {
			continue // drained, not executed
		}
		if err := s.runKernel(sub.kernel); err != nil {
			wrapped := fmt.Errorf("stream: kernel %s: %w", sub.kernel.Name, err)
			s.fault.CompareAndSwap(nil, &wrapped)
			log.Errorw("kernel failed, stream faulted", "kernel", sub.kernel.Name, "err", err)
		}
	}
}

// runKernel distributes the kernel's groups over the workers. Group indices
// are handed out with an atomic counter so unevenly sized groups balance.
func (s *Stream) runKernel(k Kernel) error {
	if k.Groups <= 0 || k.Run == nil {
		return nil
	}
	workers := min(s.workers, k.Groups)
	if workers == 1 {
		for g := 0; g < k.Groups; g++ {
			if err := k.Run(g); err != nil {
				return err
			}
		}
		return nil
	}

	var next atomic.Int64
	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			for {
				g := int(next.Add(1)) - 1
				if g >= k.Groups {
					return nil
				}
				if err := k.Run(g); err != nil {
					return err
				}
			}
		})
	}
	return eg.Wait()
}

// Launch enqueues a kernel. It returns immediately; the kernel runs after
// all previously submitted work. Launching on a faulted stream is a no-op
// returning the fault, on a closed stream it returns ErrClosed.
func (s *Stream) Launch(k Kernel) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.Err(); err != nil {
		return err
	}
	s.subC <- submission{kernel: k}
	return nil
}

// Synchronize blocks until every previously submitted kernel has completed,
// and returns the stream's fault state.
func (s *Stream) Synchronize() error {
	if s.closed.Load() {
		return s.Err()
	}
	done := make(chan error, 1)
	s.subC <- submission{sync: done}
	return <-done
}

// Err returns the stream fault, or nil if the stream is healthy.
func (s *Stream) Err() error {
	if p := s.fault.Load(); p != nil {
		return fmt.Errorf("%w: %w", ErrFaulted, *p)
	}
	return nil
}

// Workers returns the number of worker goroutines used per kernel.
func (s *Stream) Workers() int {
	return s.workers
}

// Close shuts the stream down after draining pending submissions. Closing
// twice is safe. The default stream must not be closed.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.subC)
	})
}
