package pipeline

import (
	"fmt"

	"github.com/scaledown-ai/scaledown-go/step"
)

// Kind tags a step's capability. Dispatch is a switch over Kind, so adding a
// capability is a compile-visible change, not a runtime type probe.
type Kind int

const (
	KindOptimizer Kind = iota + 1
	KindCompressor
	KindCustom
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOptimizer:
		return "optimizer"
	case KindCompressor:
		return "compressor"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Step is a named pipeline entry carrying exactly one handler. Steps are
// immutable once added to a pipeline. Names need not be unique; lookup
// returns the first match.
type Step struct {
	name       string
	kind       Kind
	optimizer  step.Optimizer
	compressor step.Compressor
	custom     step.CustomFunc
}

// Optimize wraps an Optimizer-capable handler as a named step.
func Optimize(name string, o step.Optimizer) Step {
	return Step{name: name, kind: KindOptimizer, optimizer: o}
}

// Compress wraps a Compressor-capable handler as a named step.
func Compress(name string, c step.Compressor) Step {
	return Step{name: name, kind: KindCompressor, compressor: c}
}

// Custom wraps a generic content transform as a named step. Custom steps are
// order-neutral: they may appear anywhere in a pipeline.
func Custom(name string, fn step.CustomFunc) Step {
	return Step{name: name, kind: KindCustom, custom: fn}
}

// Name returns the step name.
func (s Step) Name() string { return s.name }

// Kind returns the step capability.
func (s Step) Kind() Kind { return s.kind }

// Optimizer returns the wrapped optimizer, nil for other kinds.
func (s Step) Optimizer() step.Optimizer { return s.optimizer }

// Compressor returns the wrapped compressor, nil for other kinds.
func (s Step) Compressor() step.Compressor { return s.compressor }

// component names the concrete handler for the audit trail.
func (s Step) component() string {
	var h any
	switch s.kind {
	case KindOptimizer:
		h = s.optimizer
	case KindCompressor:
		h = s.compressor
	default:
		return "custom_func"
	}
	if c, ok := h.(interface{ Component() string }); ok {
		return c.Component()
	}
	return fmt.Sprintf("%T", h)
}
