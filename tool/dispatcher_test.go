package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var readmeSchema = Schema{
	Name: "write_readme",
	Args: []Arg{{Name: "content", Type: "string", Description: "Content of the README.md file"}},
}

func TestDispatch_CallsHandler(t *testing.T) {
	var got map[string]string
	reg := NewRegistry().MustRegister(readmeSchema, HandlerFunc(func(_ context.Context, args map[string]string) error {
		got = args
		return nil
	}))

	err := NewDispatcher(reg).Dispatch(context.Background(), Invocation{Name: "write_readme", Args: map[string]string{"content": "Hello"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"content": "Hello"}, got)
}

func TestDispatch_UnknownAction(t *testing.T) {
	d := NewDispatcher(NewRegistry().MustRegister(readmeSchema, HandlerFunc(noop)))
	err := d.Dispatch(context.Background(), Invocation{Name: "write_file"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestDispatch_MissingArgument(t *testing.T) {
	called := false
	d := NewDispatcher(NewRegistry().MustRegister(readmeSchema, HandlerFunc(func(context.Context, map[string]string) error {
		called = true
		return nil
	})))
	err := d.Dispatch(context.Background(), Invocation{Name: "write_readme", Args: map[string]string{}})
	assert.ErrorIs(t, err, ErrMalformedInvocation)
	assert.False(t, called)
}

func TestDispatch_HandlerErrorIsUnmodified(t *testing.T) {
	diskFull := errors.New("disk full")
	d := NewDispatcher(NewRegistry().MustRegister(readmeSchema, HandlerFunc(func(context.Context, map[string]string) error {
		return diskFull
	})))
	err := d.Dispatch(context.Background(), Invocation{Name: "write_readme", Args: map[string]string{"content": "x"}})
	assert.Equal(t, diskFull, err)
}

func TestDispatchAll_StopsAtFirstError(t *testing.T) {
	var seen []string
	boom := errors.New("boom")
	d := NewDispatcher(NewRegistry().MustRegister(readmeSchema, HandlerFunc(func(_ context.Context, args map[string]string) error {
		seen = append(seen, args["content"])
		if args["content"] == "2" {
			return boom
		}
		return nil
	})))

	invs := []Invocation{
		{Name: "write_readme", Args: map[string]string{"content": "1"}},
		{Name: "write_readme", Args: map[string]string{"content": "2"}},
		{Name: "write_readme", Args: map[string]string{"content": "3"}},
	}
	n, err := d.DispatchAll(context.Background(), invs)
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"1", "2"}, seen)
}

func TestRegister_Duplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(readmeSchema, HandlerFunc(noop)))
	assert.ErrorIs(t, reg.Register(readmeSchema, HandlerFunc(noop)), ErrDuplicateAction)
	assert.Len(t, reg.Schemas(), 1)
}

func TestRegister_RequiresNameAndHandler(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(Schema{}, HandlerFunc(noop)))
	assert.Error(t, reg.Register(readmeSchema, nil))
}
