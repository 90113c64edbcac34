package app

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// pickRuntime answers every dialog with the same path
type pickRuntime struct {
	path string
}

func (p *pickRuntime) OpenFileDialog(context.Context, runtime.OpenDialogOptions) (string, error) {
	return p.path, nil
}

func (p *pickRuntime) OpenMultipleFilesDialog(context.Context, runtime.OpenDialogOptions) ([]string, error) {
	return []string{p.path}, nil
}

func (p *pickRuntime) OpenDirectoryDialog(context.Context, runtime.OpenDialogOptions) (string, error) {
	return p.path, nil
}

func (p *pickRuntime) SaveFileDialog(context.Context, runtime.SaveDialogOptions) (string, error) {
	return p.path, nil
}

func (p *pickRuntime) MessageDialog(context.Context, runtime.MessageDialogOptions) (string, error) {
	return "Ok", nil
}
