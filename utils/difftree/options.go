package difftree

import "runtime"

// WalkOption configures a PreOrderWalk or PostOrderWalk.
type WalkOption func(*walkOptions)

type walkOptions struct {
	parallelism int
}

func newWalkOptions(opts []WalkOption) walkOptions {
	o := walkOptions{parallelism: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithParallelism sets how many buckets of one tree level are compared at
// the same time. One makes the walk sequential and its event order
// deterministic.
func WithParallelism(n int) WalkOption {
	return func(o *walkOptions) {
		if n < 1 {
			n = 1
		}
		o.parallelism = n
	}
}
