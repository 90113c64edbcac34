package dialog

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Runtime is the slice of the host runtime that shows native dialogs
type Runtime interface {
	OpenFileDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error)
	OpenMultipleFilesDialog(ctx context.Context, opts runtime.OpenDialogOptions) ([]string, error)
	OpenDirectoryDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error)
	SaveFileDialog(ctx context.Context, opts runtime.SaveDialogOptions) (string, error)
	MessageDialog(ctx context.Context, opts runtime.MessageDialogOptions) (string, error)
}

// WailsRuntime shows dialogs through the Wails runtime
type WailsRuntime struct{}

func (WailsRuntime) OpenFileDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error) {
	return runtime.OpenFileDialog(ctx, opts)
}

func (WailsRuntime) OpenMultipleFilesDialog(ctx context.Context, opts runtime.OpenDialogOptions) ([]string, error) {
	return runtime.OpenMultipleFilesDialog(ctx, opts)
}

func (WailsRuntime) OpenDirectoryDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error) {
	return runtime.OpenDirectoryDialog(ctx, opts)
}

func (WailsRuntime) SaveFileDialog(ctx context.Context, opts runtime.SaveDialogOptions) (string, error) {
	return runtime.SaveFileDialog(ctx, opts)
}

func (WailsRuntime) MessageDialog(ctx context.Context, opts runtime.MessageDialogOptions) (string, error) {
	return runtime.MessageDialog(ctx, opts)
}
