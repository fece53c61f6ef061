// Package fallback runs ordered best-effort strategies.
//
// Each chain tries its strategies in order and returns the first success.
// Terminal execution, text search, semantic tokens and refactor extraction
// are all expressed as chains so every step can be tested on its own.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

// ErrSkip tells the chain a strategy does not apply and the next one should
// run. Strategies may also return any other error with the same effect.
var ErrSkip = errors.New("strategy not applicable")

// ErrExhausted is returned, joined with each strategy's error, when no
// strategy succeeded.
var ErrExhausted = errors.New("all strategies failed")

var log = commonlog.GetLogger("bifrost.fallback")

// Strategy is one named attempt.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Chain is an ordered list of strategies.
type Chain[T any] struct {
	Name       string
	Strategies []Strategy[T]
}

// New builds a chain.
func New[T any](name string, strategies ...Strategy[T]) *Chain[T] {
	return &Chain[T]{Name: name, Strategies: strategies}
}

// Names lists the strategies in the order they are tried.
func (c *Chain[T]) Names() []string {
	names := make([]string, len(c.Strategies))
	for i, s := range c.Strategies {
		names[i] = s.Name
	}
	return names
}

// Run tries each strategy and returns the first result with the name of the
// strategy that produced it. A cancelled context stops the chain.
func (c *Chain[T]) Run(ctx context.Context) (T, string, error) {
	var zero T
	errs := []error{ErrExhausted}
	for _, s := range c.Strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		v, err := s.Run(ctx)
		if err == nil {
			return v, s.Name, nil
		}
		if !errors.Is(err, ErrSkip) {
			log.Debugf("%s: strategy %s failed: %s", c.Name, s.Name, err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return zero, "", errors.Join(errs...)
}
