package app

import (
	"io/fs"
	"os"

	"sm4desk/internal/config"
	"sm4desk/internal/infrastructure/logging"
	"sm4desk/internal/plugins/dialog"
	fsplugin "sm4desk/internal/plugins/fs"
	"sm4desk/internal/shell"
	"sm4desk/internal/sm4batch"
)

// App wires the shell, its two capability plugins and the batch service
type App struct {
	cfg     *config.Config
	logger  logging.Logger
	shell   *shell.Shell
	files   *fsplugin.Plugin
	dialogs *dialog.Plugin
	cipher  *sm4batch.Service
}

// Option customises NewApp
type Option func(*settings)

type settings struct {
	logger   logging.Logger
	host     shell.Host
	resolver shell.WindowResolver
	dialogs  dialog.Runtime
}

// WithLogger replaces the default zerolog-backed logger
func WithLogger(logger logging.Logger) Option {
	return func(o *settings) { o.logger = logger }
}

// WithHost replaces the Wails run loop
func WithHost(host shell.Host) Option {
	return func(o *settings) { o.host = host }
}

// WithWindowResolver replaces how commands find their window
func WithWindowResolver(resolver shell.WindowResolver) Option {
	return func(o *settings) { o.resolver = resolver }
}

// WithDialogRuntime replaces the native dialog backend
func WithDialogRuntime(rt dialog.Runtime) Option {
	return func(o *settings) { o.dialogs = rt }
}

// NewApp bootstraps the shell: attach fs and dialog plugins, register
// close_window and minimize_window, bind the batch service.
func NewApp(cfg *config.Config, assets fs.FS, opts ...Option) (*App, error) {
	o := &settings{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		level := "info"
		if cfg != nil {
			level = cfg.EffectiveLogLevel()
		}
		logger = logging.NewLogger(os.Stderr, level)
	}

	var roots []string
	defaultKey := config.DefaultSM4Key
	if cfg != nil {
		roots = cfg.FSScope
		defaultKey = cfg.DefaultKey
	}

	scope, err := fsplugin.NewScope(roots...)
	if err != nil {
		return nil, err
	}
	files := fsplugin.New(scope, logger)
	dialogs := dialog.New(o.dialogs, scope, logger)
	cipher := sm4batch.NewService(defaultKey, logger)

	builder := shell.NewBuilder(cfg, logger).
		WithAssets(assets).
		Plugin(files).
		Plugin(dialogs).
		Command(shell.CmdCloseWindow, shell.CloseWindow).
		Command(shell.CmdMinimizeWindow, shell.MinimizeWindow).
		Bind(cipher)
	if o.host != nil {
		builder.WithHost(o.host)
	}
	if o.resolver != nil {
		builder.WithWindowResolver(o.resolver)
	}

	s, err := builder.Build()
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		shell:   s,
		files:   files,
		dialogs: dialogs,
		cipher:  cipher,
	}, nil
}

// Run blocks in the host run loop until the window closes
func (a *App) Run() error {
	a.logger.Info("Application starting", "environment", a.cfg.Environment)
	return a.shell.Run()
}

// Shell returns the bootstrapped shell
func (a *App) Shell() *shell.Shell {
	return a.shell
}

// Cipher returns the batch service bound to the front-end
func (a *App) Cipher() *sm4batch.Service {
	return a.cipher
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
