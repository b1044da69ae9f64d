// Package tool implements the action protocol used to pull typed actions out
// of free-form model output: schemas, a registry of handlers, the text codec
// and the dispatcher.
package tool

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownAction       = errors.New("unknown action")
	ErrMalformedInvocation = errors.New("malformed invocation")
	ErrDuplicateAction     = errors.New("duplicate action")
)

// Arg declares one named argument of an action. Values are trimmed of
// surrounding whitespace unless Verbatim is set.
type Arg struct {
	Name        string
	Type        string
	Description string
	Verbatim    bool
}

// Schema declares an action the model may invoke.
type Schema struct {
	Name        string
	Args        []Arg
	Description string
}

// Validate checks that every declared argument is present in args.
func (s Schema) Validate(args map[string]string) error {
	for _, a := range s.Args {
		if _, ok := args[a.Name]; !ok {
			return fmt.Errorf("%w: %s is missing argument %q", ErrMalformedInvocation, s.Name, a.Name)
		}
	}
	return nil
}

// Invocation is one decoded action call. Argument values are always plain text.
type Invocation struct {
	Name string
	Args map[string]string
}

type Handler interface {
	Handle(ctx context.Context, args map[string]string) error
}

type HandlerFunc func(ctx context.Context, args map[string]string) error

func (f HandlerFunc) Handle(ctx context.Context, args map[string]string) error {
	return f(ctx, args)
}

// Registry holds action schemas in registration order with their handlers.
// It must not be modified once handed to a Codec or Dispatcher.
type Registry struct {
	schemas  []Schema
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(s Schema, h Handler) error {
	if s.Name == "" {
		return fmt.Errorf("%w: action name is required", ErrMalformedInvocation)
	}
	if h == nil {
		return fmt.Errorf("action %q has no handler", s.Name)
	}
	if _, exists := r.handlers[s.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, s.Name)
	}
	r.schemas = append(r.schemas, s)
	r.handlers[s.Name] = h
	return nil
}

// MustRegister is Register for static setup code; it panics on error.
func (r *Registry) MustRegister(s Schema, h Handler) *Registry {
	if err := r.Register(s, h); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(name string) (Schema, Handler, bool) {
	h, ok := r.handlers[name]
	if !ok {
		return Schema{}, nil, false
	}
	for _, s := range r.schemas {
		if s.Name == name {
			return s, h, true
		}
	}
	return Schema{}, nil, false
}

// Schemas returns the registered schemas in registration order.
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, len(r.schemas))
	copy(out, r.schemas)
	return out
}
