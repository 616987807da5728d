// Package handler implements the chain-of-responsibility handlers that
// walk a domain.CommandNode against a domain.CanalState: variable
// expansion, control-flow jumps, modal groups, tool/compensation, fixed
// cycles, and motion interpolation.
//
// Per the spec's design notes (§9), the chain is a flat vector executed in
// a fixed order — not a recursive "next handler" pointer graph — so
// composing a machine's chain is just building a []Handler slice.
package handler

import (
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"

	"github.com/ncplot7go/ncengine/internal/domain"
)

// Result is a handler's output: either Handled is false (delegate to the
// next handler in the chain) or it carries the motion/cycle output
// produced for this node, including a legitimately-zero Duration.
type Result struct {
	Points   []domain.Point
	Duration float64
	Handled  bool
}

// Handler mutates state and/or node.Parameters/GCodes/Next, and either
// returns Handled output or delegates by returning Handled=false.
type Handler interface {
	Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error)
}

// Chain is the fixed, ordered handler sequence for one machine/canal.
type Chain struct {
	handlers []Handler
}

// NewChain composes handlers into a chain executed in the given order.
func NewChain(handlers ...Handler) *Chain {
	return &Chain{handlers: handlers}
}

// Run executes every handler in order. The first Handled result is
// returned immediately; if no handler produces output, Result.Handled is
// false (the node carried no motion/cycle payload — e.g. a bare modal
// block).
func (c *Chain) Run(node *domain.CommandNode, state *domain.CanalState, canal string) (Result, error) {
	for _, h := range c.handlers {
		res, err := h.Handle(node, state)
		if err != nil {
			if _, ok := err.(ncerrors.NCError); ok {
				return Result{}, err
			}
			return Result{}, ncerrors.NewControlError(node.LineNr, canal, "handler failure", err)
		}
		if res.Handled {
			return res, nil
		}
	}
	return Result{}, nil
}
