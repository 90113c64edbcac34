package shell

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "sm4desk/internal/infrastructure/errors"
)

// Fixed names the front-end dispatches by
const (
	CmdCloseWindow    = "close_window"
	CmdMinimizeWindow = "minimize_window"
)

// Command is a remote-invocable operation over the window it is handed
type Command func(ctx context.Context, w WindowHandle) error

// CloseWindow asks the host to close w; closing the last window ends the run loop
func CloseWindow(_ context.Context, w WindowHandle) error {
	return w.Close()
}

// MinimizeWindow asks the host to minimise w
func MinimizeWindow(_ context.Context, w WindowHandle) error {
	return w.Minimise()
}

// Registry maps command names to handlers. It is sealed before the host
// run loop starts and read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	sealed   bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd under name. Names are unique and registration is closed once sealed.
func (r *Registry) Register(name string, cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case name == "":
		return apperrors.New("register", fmt.Errorf("command name is empty"), apperrors.ErrCodeValidation)
	case cmd == nil:
		return apperrors.NewWithContext("register", fmt.Errorf("command handler is nil"), apperrors.ErrCodeValidation,
			map[string]string{"command": name})
	case r.sealed:
		return apperrors.NewWithContext("register", fmt.Errorf("registry is sealed"), apperrors.ErrCodeInternal,
			map[string]string{"command": name})
	}

	if _, exists := r.commands[name]; exists {
		return apperrors.NewWithContext("register", fmt.Errorf("command already registered"), apperrors.ErrCodeValidation,
			map[string]string{"command": name})
	}

	r.commands[name] = cmd
	return nil
}

// Lookup returns the handler registered under name
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered command names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Commands is bound to the front-end and dispatches invocations to the
// registry, each against a handle resolved for that call alone.
//
// A failing command's error is returned as is: the host rejects the
// front-end's pending call and nothing here retries or recovers.
type Commands struct {
	registry *Registry
	resolve  WindowResolver

	mu      sync.RWMutex
	hostCtx context.Context
}

func newCommands(registry *Registry, resolve WindowResolver) *Commands {
	return &Commands{registry: registry, resolve: resolve}
}

// Startup receives the host's lifecycle context
func (c *Commands) Startup(ctx context.Context) {
	c.mu.Lock()
	c.hostCtx = ctx
	c.mu.Unlock()
}

func (c *Commands) context() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostCtx
}

// Invoke runs the command registered under name against the current window
func (c *Commands) Invoke(name string) error {
	cmd, ok := c.registry.Lookup(name)
	if !ok {
		return apperrors.NewWithContext(name, apperrors.ErrUnknownCommand, apperrors.ErrCodeUnknownCommand,
			map[string]string{"command": name})
	}

	ctx := c.context()
	w, err := c.resolve(ctx)
	if err != nil {
		return apperrors.New(name, err, apperrors.ErrCodeInvalidHandle)
	}

	if err := cmd(ctx, w); err != nil {
		code := apperrors.Classify(err)
		if code == apperrors.ErrCodeUnknown {
			code = apperrors.ErrCodeHost
		}
		return apperrors.New(name, err, code)
	}
	return nil
}

// CloseWindow is the close_window binding
func (c *Commands) CloseWindow() error {
	return c.Invoke(CmdCloseWindow)
}

// MinimizeWindow is the minimize_window binding
func (c *Commands) MinimizeWindow() error {
	return c.Invoke(CmdMinimizeWindow)
}

// Names lists the commands the front-end may invoke
func (c *Commands) Names() []string {
	return c.registry.Names()
}
