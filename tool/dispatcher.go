package tool

import (
	"context"
	"fmt"
)

// Dispatcher routes decoded invocations to their registered handlers.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// Dispatch validates inv against its schema and calls the handler. Handler
// errors are returned as is.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) error {
	schema, h, ok := d.registry.Lookup(inv.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, inv.Name)
	}
	if err := schema.Validate(inv.Args); err != nil {
		return err
	}
	return h.Handle(ctx, inv.Args)
}

// DispatchAll dispatches invs in order and stops at the first error. It
// returns the number of invocations handled successfully.
func (d *Dispatcher) DispatchAll(ctx context.Context, invs []Invocation) (int, error) {
	for i, inv := range invs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := d.Dispatch(ctx, inv); err != nil {
			return i, err
		}
	}
	return len(invs), nil
}
