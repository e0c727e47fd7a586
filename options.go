package lowrank

import (
	"context"
	"fmt"
)

type Option func(*Scheduler) error

// DecomposeFunc factorizes one channel. Implementations must return
// singular values in non-increasing order.
type DecomposeFunc func(ctx context.Context, m ChannelMatrix) (*FactorizationRecord, error)

// WithDecomposer replaces the gonum-backed factorization.
func WithDecomposer(fn DecomposeFunc) Option {
	return func(s *Scheduler) error {
		if fn == nil {
			return fmt.Errorf("%w: nil decomposer", ErrInvalidInput)
		}
		s.decompose = fn
		return nil
	}
}

// WithFrameRate limits Run to at most fps reconstructions per second.
// The default is 60.
func WithFrameRate(fps float64) Option {
	return func(s *Scheduler) error {
		if fps <= 0 {
			return fmt.Errorf("%w: frame rate %v", ErrInvalidInput, fps)
		}
		s.frameRate = fps
		return nil
	}
}

// WithInitialRankRatio sets the rank chosen after a new image is factorized,
// as a fraction of the maximum rank. It is never below 1.
// The default is 0.1.
func WithInitialRankRatio(ratio float64) Option {
	return func(s *Scheduler) error {
		if ratio <= 0 || ratio > 1 {
			return fmt.Errorf("%w: initial rank ratio %v", ErrInvalidInput, ratio)
		}
		s.initialRatio = ratio
		return nil
	}
}
