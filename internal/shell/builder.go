package shell

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"sm4desk/internal/config"
	apperrors "sm4desk/internal/infrastructure/errors"
	"sm4desk/internal/infrastructure/logging"
)

// Host owns the window and the event loop. Run blocks until the last window
// closes and returns an error only when the host fails to start.
type Host interface {
	Run(opts *options.App) error
}

// HostFunc adapts a function to Host
type HostFunc func(opts *options.App) error

func (f HostFunc) Run(opts *options.App) error {
	return f(opts)
}

// WailsHost runs the native Wails event loop
var WailsHost Host = HostFunc(wails.Run)

// Builder assembles the shell: construct, attach plugins, register commands, run.
// The first error is kept and reported by Build.
type Builder struct {
	cfg      *config.Config
	logger   logging.Logger
	assets   fs.FS
	host     Host
	resolve  WindowResolver
	registry *Registry
	plugins  []Plugin
	bindings []interface{}
	err      error
}

// NewBuilder creates a builder running on the Wails host
func NewBuilder(cfg *config.Config, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Builder{
		cfg:      cfg,
		logger:   logger,
		host:     WailsHost,
		resolve:  ResolveWailsWindow,
		registry: NewRegistry(),
	}
}

// WithAssets sets the packaged front-end
func (b *Builder) WithAssets(assets fs.FS) *Builder {
	b.assets = assets
	return b
}

// WithHost replaces the host run loop
func (b *Builder) WithHost(host Host) *Builder {
	b.host = host
	return b
}

// WithWindowResolver replaces how invocations find their window
func (b *Builder) WithWindowResolver(resolve WindowResolver) *Builder {
	b.resolve = resolve
	return b
}

// Plugin attaches a capability plugin; plugin names must be unique
func (b *Builder) Plugin(p Plugin) *Builder {
	if b.err != nil {
		return b
	}
	if p == nil {
		b.err = apperrors.New("plugin", fmt.Errorf("plugin is nil"), apperrors.ErrCodeStartup)
		return b
	}
	for _, existing := range b.plugins {
		if existing.Name() == p.Name() {
			b.err = apperrors.NewWithContext("plugin", fmt.Errorf("plugin attached twice"), apperrors.ErrCodeStartup,
				map[string]string{"plugin": p.Name()})
			return b
		}
	}
	b.plugins = append(b.plugins, p)
	return b
}

// Command registers a named command
func (b *Builder) Command(name string, cmd Command) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.registry.Register(name, cmd); err != nil {
		b.err = err
	}
	return b
}

// Bind exposes an additional service's exported methods to the front-end
func (b *Builder) Bind(v interface{}) *Builder {
	b.bindings = append(b.bindings, v)
	return b
}

// Shell is a bootstrapped application ready to enter the host run loop
type Shell struct {
	opts     *options.App
	host     Host
	commands *Commands
	plugins  []Plugin
	logger   logging.Logger
}

// Build validates the bootstrap and seals the command registry
func (b *Builder) Build() (*Shell, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.cfg == nil {
		return nil, apperrors.New("bootstrap", fmt.Errorf("configuration is missing"), apperrors.ErrCodeStartup)
	}
	if b.assets == nil {
		return nil, apperrors.New("bootstrap", fmt.Errorf("packaged front-end assets are missing"), apperrors.ErrCodeStartup)
	}
	if b.host == nil || b.resolve == nil {
		return nil, apperrors.New("bootstrap", fmt.Errorf("host runtime is not configured"), apperrors.ErrCodeStartup)
	}

	b.registry.seal()

	s := &Shell{
		host:     b.host,
		commands: newCommands(b.registry, b.resolve),
		plugins:  append([]Plugin(nil), b.plugins...),
		logger:   b.logger,
	}
	s.opts = s.appOptions(b.cfg, b.assets, b.bindings)
	return s, nil
}

// Run builds the shell and blocks in the host run loop
func (b *Builder) Run() error {
	s, err := b.Build()
	if err != nil {
		return err
	}
	return s.Run()
}

func (s *Shell) appOptions(cfg *config.Config, assets fs.FS, extra []interface{}) *options.App {
	bind := []interface{}{s.commands}
	for _, p := range s.plugins {
		bind = append(bind, p)
	}
	bind = append(bind, extra...)

	level := logging.WailsLogLevel(cfg.EffectiveLogLevel())

	return &options.App{
		Title:              cfg.Window.Title,
		Width:              cfg.Window.Width,
		Height:             cfg.Window.Height,
		MinWidth:           cfg.Window.MinWidth,
		MinHeight:          cfg.Window.MinHeight,
		Frameless:          cfg.Window.Frameless,
		AlwaysOnTop:        cfg.Window.AlwaysOnTop,
		StartHidden:        false,
		HideWindowOnClose:  false,
		BackgroundColour:   &options.RGBA{R: 255, G: 255, B: 255, A: 255},
		AssetServer:        &assetserver.Options{Assets: assets},
		Logger:             logging.NewWailsLoggerAdapter(s.logger),
		LogLevel:           level,
		LogLevelProduction: level,
		OnStartup:          s.startup,
		OnDomReady:         s.domReady,
		OnBeforeClose:      s.beforeClose,
		OnShutdown:         s.shutdown,
		WindowStartState:   options.Normal,
		Bind:               bind,
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
			ZoomFactor:           1.0,
		},
		Mac: &mac.Options{
			TitleBar:             mac.TitleBarHiddenInset(),
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			About: &mac.AboutInfo{
				Title:   cfg.Window.Title,
				Message: "SM4 batch encryption tool",
			},
		},
		Linux: &linux.Options{
			ProgramName: "sm4desk",
		},
	}
}

// Run enters the host run loop. A host that fails to start is a startup fault.
func (s *Shell) Run() error {
	s.logger.Info("Starting host run loop", "commands", s.commands.Names(), "plugins", s.PluginNames())

	if err := s.host.Run(s.opts); err != nil {
		return apperrors.New("run", err, apperrors.ErrCodeStartup)
	}

	s.logger.Info("Host run loop ended")
	return nil
}

// Options returns the options handed to the host
func (s *Shell) Options() *options.App {
	return s.opts
}

// Commands returns the bound command dispatcher
func (s *Shell) Commands() *Commands {
	return s.commands
}

// PluginNames lists attached plugins in attachment order
func (s *Shell) PluginNames() []string {
	names := make([]string, 0, len(s.plugins))
	for _, p := range s.plugins {
		names = append(names, p.Name())
	}
	return names
}

func (s *Shell) startup(ctx context.Context) {
	s.commands.Startup(ctx)
	for _, p := range s.plugins {
		p.Startup(ctx)
	}
	s.logger.Debug("Shell bootstrapped", "plugins", s.PluginNames())
}

func (s *Shell) domReady(ctx context.Context) {}

func (s *Shell) beforeClose(ctx context.Context) (prevent bool) {
	return false
}

func (s *Shell) shutdown(ctx context.Context) {
	s.logger.Debug("Shell shutting down")
}
