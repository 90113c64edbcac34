package shell

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wailsapp/wails/v2/pkg/options"

	"sm4desk/internal/config"
	apperrors "sm4desk/internal/infrastructure/errors"
	"sm4desk/internal/testutils"
)

// fakeWindow records what the host was asked to do with one window
type fakeWindow struct {
	mu        sync.Mutex
	open      bool
	minimised bool
	failWith  error
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{open: true}
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWith != nil {
		return w.failWith
	}
	if !w.open {
		return errors.New("window already destroyed")
	}
	w.open = false
	return nil
}

func (w *fakeWindow) Minimise() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWith != nil {
		return w.failWith
	}
	if !w.open {
		return errors.New("window already destroyed")
	}
	w.minimised = true
	return nil
}

func (w *fakeWindow) state() (open, minimised bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open, w.minimised
}

type ctxKey struct{}

// resolverFor resolves the window stored in the host context, like the real host does
func resolverFor() WindowResolver {
	return func(ctx context.Context) (WindowHandle, error) {
		if ctx == nil {
			return nil, apperrors.ErrInvalidHandle
		}
		w, ok := ctx.Value(ctxKey{}).(*fakeWindow)
		if !ok {
			return nil, apperrors.ErrInvalidHandle
		}
		return w, nil
	}
}

type fakePlugin struct {
	name      string
	startedOn context.Context
}

func (p *fakePlugin) Name() string                { return p.name }
func (p *fakePlugin) Startup(ctx context.Context) { p.startedOn = ctx }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromMap(map[string]string{"SM4DESK_FS_SCOPE": t.TempDir()})
	require.NoError(t, err)
	return cfg
}

func testAssets() fstest.MapFS {
	return fstest.MapFS{"index.html": &fstest.MapFile{Data: []byte("<html></html>")}}
}

func newTestBuilder(t *testing.T, host Host) (*Builder, *testutils.RecordingLogger) {
	rec := &testutils.RecordingLogger{}
	b := NewBuilder(testConfig(t), rec).
		WithAssets(testAssets()).
		WithHost(host).
		WithWindowResolver(resolverFor())
	return b, rec
}

// runLoop simulates the host: start up with a live window, run the script, return
func runLoop(window *fakeWindow, script func(opts *options.App, ctx context.Context)) HostFunc {
	return func(opts *options.App) error {
		ctx := context.WithValue(context.Background(), ctxKey{}, window)
		opts.OnStartup(ctx)
		script(opts, ctx)
		opts.OnShutdown(ctx)
		return nil
	}
}

func commandsFrom(t *testing.T, opts *options.App) *Commands {
	t.Helper()
	for _, b := range opts.Bind {
		if c, ok := b.(*Commands); ok {
			return c
		}
	}
	t.Fatal("commands are not bound")
	return nil
}

func TestCloseWindow_ClosesTheWindow(t *testing.T) {
	window := newFakeWindow()
	var invokeErr error

	b, _ := newTestBuilder(t, runLoop(window, func(opts *options.App, _ context.Context) {
		invokeErr = commandsFrom(t, opts).CloseWindow()
	}))
	b.Command(CmdCloseWindow, CloseWindow).Command(CmdMinimizeWindow, MinimizeWindow)

	require.NoError(t, b.Run())
	require.NoError(t, invokeErr)

	open, _ := window.state()
	assert.False(t, open)
}

func TestMinimizeWindow_MinimisesWithoutClosing(t *testing.T) {
	window := newFakeWindow()
	var invokeErr error

	b, _ := newTestBuilder(t, runLoop(window, func(opts *options.App, _ context.Context) {
		invokeErr = commandsFrom(t, opts).Invoke(CmdMinimizeWindow)
	}))
	b.Command(CmdCloseWindow, CloseWindow).Command(CmdMinimizeWindow, MinimizeWindow)

	require.NoError(t, b.Run())
	require.NoError(t, invokeErr)

	open, minimised := window.state()
	assert.True(t, open)
	assert.True(t, minimised)
}

func TestInvoke_InvalidHandleFailsOnlyThatCall(t *testing.T) {
	b, _ := newTestBuilder(t, HostFunc(func(*options.App) error { return nil }))
	b.Command(CmdCloseWindow, CloseWindow).Command(CmdMinimizeWindow, MinimizeWindow)

	s, err := b.Build()
	require.NoError(t, err)
	cmds := s.Commands()

	// before startup there is no live window
	err = cmds.CloseWindow()
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidHandle(err))

	// a live window afterwards is still served
	window := newFakeWindow()
	cmds.Startup(context.WithValue(context.Background(), ctxKey{}, window))
	require.NoError(t, cmds.MinimizeWindow())
	_, minimised := window.state()
	assert.True(t, minimised)
}

func TestInvoke_HostFailureIsReturnedUnhandled(t *testing.T) {
	window := newFakeWindow()
	window.failWith = errors.New("window already destroyed")

	b, rec := newTestBuilder(t, HostFunc(func(*options.App) error { return nil }))
	b.Command(CmdCloseWindow, CloseWindow)
	s, err := b.Build()
	require.NoError(t, err)

	s.Commands().Startup(context.WithValue(context.Background(), ctxKey{}, window))

	err = s.Commands().CloseWindow()
	require.Error(t, err)
	assert.True(t, apperrors.IsHost(err))
	assert.ErrorIs(t, err, window.failWith)

	var shellErr *apperrors.ShellError
	require.ErrorAs(t, err, &shellErr)
	assert.Equal(t, CmdCloseWindow, shellErr.Op)

	// command faults are not logged by the shell
	assert.Empty(t, rec.Calls("ERROR"))
}

func TestInvoke_ClosingTwiceFails(t *testing.T) {
	window := newFakeWindow()
	var first, second error

	b, _ := newTestBuilder(t, runLoop(window, func(opts *options.App, _ context.Context) {
		cmds := commandsFrom(t, opts)
		first = cmds.CloseWindow()
		second = cmds.CloseWindow()
	}))
	b.Command(CmdCloseWindow, CloseWindow)

	require.NoError(t, b.Run())
	assert.NoError(t, first)
	assert.Error(t, second)
}

func TestInvoke_UnknownCommand(t *testing.T) {
	b, _ := newTestBuilder(t, HostFunc(func(*options.App) error { return nil }))
	b.Command(CmdCloseWindow, CloseWindow)
	s, err := b.Build()
	require.NoError(t, err)

	err = s.Commands().Invoke("maximize_window")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnknownCommand(err))

	// the missing minimize registration surfaces the same way
	assert.True(t, apperrors.IsUnknownCommand(s.Commands().MinimizeWindow()))
}

func TestCommands_OnlyTouchTheirOwnWindow(t *testing.T) {
	a, b := newFakeWindow(), newFakeWindow()

	require.NoError(t, MinimizeWindow(context.Background(), a))
	require.NoError(t, CloseWindow(context.Background(), a))

	openA, minA := a.state()
	openB, minB := b.state()
	assert.False(t, openA)
	assert.True(t, minA)
	assert.True(t, openB)
	assert.False(t, minB)
}

func TestCommands_ConcurrentInvocations(t *testing.T) {
	window := newFakeWindow()
	b, _ := newTestBuilder(t, HostFunc(func(*options.App) error { return nil }))
	b.Command(CmdMinimizeWindow, MinimizeWindow)
	s, err := b.Build()
	require.NoError(t, err)
	s.Commands().Startup(context.WithValue(context.Background(), ctxKey{}, window))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Commands().MinimizeWindow()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestBootstrap_PluginsAndCommandsReadyBeforeRunLoop(t *testing.T) {
	fsPlugin := &fakePlugin{name: "fs"}
	dialogPlugin := &fakePlugin{name: "dialog"}
	extra := &struct{ Name string }{Name: "sm4"}

	var seen *options.App
	host := HostFunc(func(opts *options.App) error {
		seen = opts
		cmds := commandsFrom(t, opts)
		assert.Equal(t, []string{CmdCloseWindow, CmdMinimizeWindow}, cmds.Names())
		assert.Contains(t, opts.Bind, Plugin(fsPlugin))
		assert.Contains(t, opts.Bind, Plugin(dialogPlugin))
		assert.Contains(t, opts.Bind, interface{}(extra))

		ctx := context.WithValue(context.Background(), ctxKey{}, newFakeWindow())
		opts.OnStartup(ctx)
		assert.Equal(t, ctx, fsPlugin.startedOn)
		assert.Equal(t, ctx, dialogPlugin.startedOn)
		return nil
	})

	b, _ := newTestBuilder(t, host)
	b.Plugin(fsPlugin).
		Plugin(dialogPlugin).
		Command(CmdCloseWindow, CloseWindow).
		Command(CmdMinimizeWindow, MinimizeWindow).
		Bind(extra)

	s, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"fs", "dialog"}, s.PluginNames())

	require.NoError(t, s.Run())
	require.NotNil(t, seen)

	assert.Equal(t, "SM4 Batch Tool", seen.Title)
	assert.Equal(t, 1024, seen.Width)
	assert.True(t, seen.Frameless)
	assert.NotNil(t, seen.AssetServer)
	assert.NotNil(t, seen.Logger)
	assert.False(t, seen.OnBeforeClose(context.Background()))
}

func TestBootstrap_RegistryIsSealedOnBuild(t *testing.T) {
	b, _ := newTestBuilder(t, HostFunc(func(*options.App) error { return nil }))
	b.Command(CmdCloseWindow, CloseWindow)

	_, err := b.Build()
	require.NoError(t, err)

	err = b.registry.Register(CmdMinimizeWindow, MinimizeWindow)
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

func TestBootstrap_StartupFailureNeverShowsAWindow(t *testing.T) {
	started := false
	host := HostFunc(func(*options.App) error {
		started = true
		return nil
	})

	tests := []struct {
		name  string
		build func() *Builder
	}{
		{"missing assets", func() *Builder {
			return NewBuilder(testConfig(t), nil).WithHost(host)
		}},
		{"missing config", func() *Builder {
			return NewBuilder(nil, nil).WithHost(host).WithAssets(testAssets())
		}},
		{"duplicate plugin", func() *Builder {
			b, _ := newTestBuilder(t, host)
			return b.Plugin(&fakePlugin{name: "fs"}).Plugin(&fakePlugin{name: "fs"})
		}},
		{"nil plugin", func() *Builder {
			b, _ := newTestBuilder(t, host)
			return b.Plugin(nil)
		}},
		{"duplicate command", func() *Builder {
			b, _ := newTestBuilder(t, host)
			return b.Command(CmdCloseWindow, CloseWindow).Command(CmdCloseWindow, MinimizeWindow)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started = false
			err := tt.build().Run()
			require.Error(t, err)
			assert.False(t, started, "host must not be started")
		})
	}
}

func TestRun_HostFailureIsStartupFault(t *testing.T) {
	b, _ := newTestBuilder(t, HostFunc(func(*options.App) error {
		return errors.New("no display")
	}))

	err := b.Run()
	require.Error(t, err)
	assert.True(t, apperrors.IsStartup(err))
	assert.Contains(t, err.Error(), "no display")
}

func TestRegistry_Validation(t *testing.T) {
	r := NewRegistry()

	assert.True(t, apperrors.IsValidation(r.Register("", CloseWindow)))
	assert.True(t, apperrors.IsValidation(r.Register("x", nil)))
	require.NoError(t, r.Register("x", CloseWindow))
	assert.True(t, apperrors.IsValidation(r.Register("x", CloseWindow)))

	_, ok := r.Lookup("x")
	assert.True(t, ok)
	_, ok = r.Lookup("y")
	assert.False(t, ok)
}

func TestResolveWailsWindow_RejectsForeignContexts(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	for name, ctx := range map[string]context.Context{
		"nil":        nil,
		"background": context.Background(),
		"cancelled":  cancelled,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ResolveWailsWindow(ctx)
			assert.ErrorIs(t, err, apperrors.ErrInvalidHandle)
		})
	}
}
