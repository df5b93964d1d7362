// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package containertest provides an in-memory container.Runtime for
// converter tests.
package containertest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/doc2md/internal/container"
)

// Runtime records every run and answers with RunFunc.
type Runtime struct {
	// Images lists the images ImageExists reports as present.
	Images map[string]bool

	// RunFunc produces the container's stdout. Nil echoes stdin.
	RunFunc func(spec container.Spec, stdin io.Reader, stdout io.Writer) error

	mu    sync.Mutex
	specs []container.Spec
}

func (r *Runtime) Name() string    { return "fake" }
func (r *Runtime) Available() bool { return true }

func (r *Runtime) ImageExists(image string) error {
	if r.Images[image] {
		return nil
	}
	return fmt.Errorf("image %s not found in fake", image)
}

func (r *Runtime) Run(ctx context.Context, spec container.Spec, stdin io.Reader, stdout io.Writer) error {
	r.mu.Lock()
	r.specs = append(r.specs, spec)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if r.RunFunc == nil {
		_, err := io.Copy(stdout, stdin)
		return err
	}
	return r.RunFunc(spec, stdin, stdout)
}

// Specs returns the specs of every run so far.
func (r *Runtime) Specs() []container.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]container.Spec, len(r.specs))
	copy(out, r.specs)
	return out
}
