package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"sm4desk/internal/app"
	"sm4desk/internal/config"
	"sm4desk/internal/platform"
	"sm4desk/internal/shell"
)

// Options carries what the process entry hands to the commands
type Options struct {
	Assets fs.FS
	Host   shell.Host // nil runs the Wails host
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type state struct {
	opts    Options
	envFile string
	debug   bool
	cfg     *config.Config
}

// NewRootCommand builds the command tree. With no subcommand the desktop shell runs.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	st := &state{opts: opts}

	root := &cobra.Command{
		Use:           "sm4desk",
		Short:         "SM4 batch encryption desktop tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.envFile)
			if err != nil {
				return err
			}
			if st.debug {
				cfg.Debug = true
			}
			st.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.runDesktop()
		},
	}

	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	root.PersistentFlags().StringVar(&st.envFile, "env-file", ".env", "dotenv file with SM4DESK_* settings")
	root.PersistentFlags().BoolVarP(&st.debug, "debug", "d", false, "enable debug logging and keep the console")

	root.AddCommand(batchCmd(st, "encrypt"), batchCmd(st, "decrypt"))
	return root
}

func (st *state) runDesktop() error {
	platform.SuppressConsole(st.cfg.Debug || st.cfg.IsDevelopment())

	var appOpts []app.Option
	if st.opts.Host != nil {
		appOpts = append(appOpts, app.WithHost(st.opts.Host))
	}

	application, err := app.NewApp(st.cfg, st.opts.Assets, appOpts...)
	if err != nil {
		return err
	}
	return application.Run()
}

// Execute runs the command line and returns the process exit status
func Execute(opts Options, args []string) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "sm4desk: %v\n", err)
		return 1
	}
	return 0
}
