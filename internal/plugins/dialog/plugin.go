// Package dialog is the native-dialog capability plugin. Dialogs are the
// host's own; paths the user picks are granted to the filesystem scope.
package dialog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	apperrors "sm4desk/internal/infrastructure/errors"
	"sm4desk/internal/infrastructure/logging"
)

// ScopeGranter receives paths the user selected. Picked files are granted
// one by one; a picked directory is granted with everything below it.
type ScopeGranter interface {
	Grant(path string) error
	GrantDir(path string) error
}

// Filter restricts the files a dialog offers, e.g. {"Text", ["txt", "csv"]}
type Filter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// OpenOptions configures the open dialogs
type OpenOptions struct {
	Title       string   `json:"title"`
	DefaultPath string   `json:"defaultPath"`
	Filters     []Filter `json:"filters"`
	ShowHidden  bool     `json:"showHidden"`
}

// SaveOptions configures the save dialog
type SaveOptions struct {
	Title       string   `json:"title"`
	DefaultPath string   `json:"defaultPath"`
	Filters     []Filter `json:"filters"`
}

// MessageOptions configures a message box. Kind is info, warning, error or question.
type MessageOptions struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Kind    string   `json:"kind"`
	Buttons []string `json:"buttons"`
}

// Plugin exposes the host's native dialogs to the front-end
type Plugin struct {
	rt      Runtime
	granter ScopeGranter
	logger  logging.Logger

	mu      sync.RWMutex
	hostCtx context.Context
}

// New creates the plugin. granter may be nil, in which case selections grant nothing.
func New(rt Runtime, granter ScopeGranter, logger logging.Logger) *Plugin {
	if rt == nil {
		rt = WailsRuntime{}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Plugin{rt: rt, granter: granter, logger: logger}
}

func (p *Plugin) Name() string { return "dialog" }

func (p *Plugin) Startup(ctx context.Context) {
	p.mu.Lock()
	p.hostCtx = ctx
	p.mu.Unlock()
}

func (p *Plugin) context(op string) (context.Context, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.hostCtx == nil {
		return nil, apperrors.New(op, apperrors.ErrInvalidHandle, apperrors.ErrCodeInvalidHandle)
	}
	return p.hostCtx, nil
}

// Open shows a single-file picker. Cancel returns "".
func (p *Plugin) Open(opts OpenOptions) (string, error) {
	ctx, err := p.context("dialog.open")
	if err != nil {
		return "", err
	}

	path, err := p.rt.OpenFileDialog(ctx, toOpenDialogOptions(opts))
	if err != nil {
		return "", apperrors.New("dialog.open", err, apperrors.ErrCodeHost)
	}
	if err := p.grant("dialog.open", path); err != nil {
		return "", err
	}
	return path, nil
}

// OpenMultiple shows a multi-file picker. Cancel returns an empty list.
func (p *Plugin) OpenMultiple(opts OpenOptions) ([]string, error) {
	ctx, err := p.context("dialog.open_multiple")
	if err != nil {
		return nil, err
	}

	paths, err := p.rt.OpenMultipleFilesDialog(ctx, toOpenDialogOptions(opts))
	if err != nil {
		return nil, apperrors.New("dialog.open_multiple", err, apperrors.ErrCodeHost)
	}
	for _, path := range paths {
		if err := p.grant("dialog.open_multiple", path); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// OpenDirectory shows a directory picker. Cancel returns "".
func (p *Plugin) OpenDirectory(opts OpenOptions) (string, error) {
	ctx, err := p.context("dialog.open_directory")
	if err != nil {
		return "", err
	}

	dialogOpts := toOpenDialogOptions(opts)
	dialogOpts.CanCreateDirectories = true

	path, err := p.rt.OpenDirectoryDialog(ctx, dialogOpts)
	if err != nil {
		return "", apperrors.New("dialog.open_directory", err, apperrors.ErrCodeHost)
	}
	if err := p.grantDir("dialog.open_directory", path); err != nil {
		return "", err
	}
	return path, nil
}

// Save shows a save dialog. Cancel returns "".
func (p *Plugin) Save(opts SaveOptions) (string, error) {
	ctx, err := p.context("dialog.save")
	if err != nil {
		return "", err
	}

	dir, file := splitDefaultPath(opts.DefaultPath)
	path, err := p.rt.SaveFileDialog(ctx, runtime.SaveDialogOptions{
		DefaultDirectory:     dir,
		DefaultFilename:      file,
		Title:                opts.Title,
		Filters:              toFileFilters(opts.Filters),
		CanCreateDirectories: true,
	})
	if err != nil {
		return "", apperrors.New("dialog.save", err, apperrors.ErrCodeHost)
	}
	if err := p.grant("dialog.save", path); err != nil {
		return "", err
	}
	return path, nil
}

// Message shows a message box and returns the button the user pressed
func (p *Plugin) Message(opts MessageOptions) (string, error) {
	ctx, err := p.context("dialog.message")
	if err != nil {
		return "", err
	}

	kind, err := toDialogType(opts.Kind)
	if err != nil {
		return "", err
	}

	pressed, err := p.rt.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:    kind,
		Title:   opts.Title,
		Message: opts.Message,
		Buttons: opts.Buttons,
	})
	if err != nil {
		return "", apperrors.New("dialog.message", err, apperrors.ErrCodeHost)
	}
	return pressed, nil
}

func (p *Plugin) grant(op, path string) error {
	if p.granter == nil {
		return nil
	}
	return p.record(op, path, p.granter.Grant)
}

func (p *Plugin) grantDir(op, path string) error {
	if p.granter == nil {
		return nil
	}
	return p.record(op, path, p.granter.GrantDir)
}

func (p *Plugin) record(op, path string, grant func(string) error) error {
	if path == "" {
		return nil
	}
	if err := grant(path); err != nil {
		logging.LogError(p.logger, err, op, map[string]interface{}{"path": path})
		return err
	}
	p.logger.Debug("Granted dialog selection", "operation", op, "path", path)
	return nil
}

func toOpenDialogOptions(opts OpenOptions) runtime.OpenDialogOptions {
	dir, file := splitDefaultPath(opts.DefaultPath)
	return runtime.OpenDialogOptions{
		DefaultDirectory: dir,
		DefaultFilename:  file,
		Title:            opts.Title,
		Filters:          toFileFilters(opts.Filters),
		ShowHiddenFiles:  opts.ShowHidden,
	}
}

// splitDefaultPath treats an existing directory as the starting directory and
// anything else as directory plus suggested file name.
func splitDefaultPath(path string) (dir, file string) {
	if path == "" {
		return "", ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path, ""
	}
	dir, file = filepath.Split(path)
	return strings.TrimSuffix(dir, string(filepath.Separator)), file
}

// toFileFilters turns {"Text", ["txt", ".csv"]} into the host's "*.txt;*.csv" pattern
func toFileFilters(filters []Filter) []runtime.FileFilter {
	if len(filters) == 0 {
		return nil
	}

	out := make([]runtime.FileFilter, 0, len(filters))
	for _, f := range filters {
		patterns := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
			if ext == "" {
				continue
			}
			patterns = append(patterns, "*."+ext)
		}
		if len(patterns) == 0 {
			continue
		}
		out = append(out, runtime.FileFilter{
			DisplayName: fmt.Sprintf("%s (%s)", f.Name, strings.Join(patterns, ", ")),
			Pattern:     strings.Join(patterns, ";"),
		})
	}
	return out
}

func toDialogType(kind string) (runtime.DialogType, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "info":
		return runtime.InfoDialog, nil
	case "warning", "warn":
		return runtime.WarningDialog, nil
	case "error":
		return runtime.ErrorDialog, nil
	case "question":
		return runtime.QuestionDialog, nil
	default:
		return "", apperrors.NewWithContext("dialog.message", fmt.Errorf("unknown dialog kind %q", kind),
			apperrors.ErrCodeValidation, map[string]string{"kind": kind})
	}
}
