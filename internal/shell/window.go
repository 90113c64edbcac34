package shell

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	apperrors "sm4desk/internal/infrastructure/errors"
)

// WindowHandle is an opaque reference to one live host window. Handles are
// owned by the host; commands borrow one for a single invocation.
type WindowHandle interface {
	Close() error
	Minimise() error
}

// WindowResolver turns the host's lifecycle context into a handle for the
// window an invocation is bound to.
type WindowResolver func(ctx context.Context) (WindowHandle, error)

// wailsFrontendKey is the value key under which the Wails runtime stores its frontend
const wailsFrontendKey = "frontend"

type wailsWindow struct {
	ctx context.Context
}

func (w wailsWindow) Close() error {
	runtime.Quit(w.ctx)
	return nil
}

func (w wailsWindow) Minimise() error {
	runtime.WindowMinimise(w.ctx)
	return nil
}

// ResolveWailsWindow returns the main Wails window for ctx. The Wails runtime
// exits the process when handed a context it did not create, so the context is
// checked here and rejected with ErrInvalidHandle instead.
func ResolveWailsWindow(ctx context.Context) (WindowHandle, error) {
	if ctx == nil || ctx.Err() != nil || ctx.Value(wailsFrontendKey) == nil {
		return nil, apperrors.ErrInvalidHandle
	}
	return wailsWindow{ctx: ctx}, nil
}
