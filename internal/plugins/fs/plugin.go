// Package fs is the filesystem capability plugin: scoped file access for the front-end.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	apperrors "sm4desk/internal/infrastructure/errors"
	"sm4desk/internal/infrastructure/logging"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// DirEntry describes one directory entry for the front-end
type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
	Size  int64  `json:"size"`
}

// Plugin exposes file operations restricted to its Scope
type Plugin struct {
	scope  *Scope
	logger logging.Logger
}

// New creates the plugin over scope
func New(scope *Scope, logger logging.Logger) *Plugin {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Plugin{scope: scope, logger: logger}
}

func (p *Plugin) Name() string { return "fs" }

func (p *Plugin) Startup(ctx context.Context) {
	p.logger.Debug("Filesystem plugin ready", "roots", p.scope.Roots())
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.NewWithContext(op, err, apperrors.Classify(err), map[string]string{"path": path})
}

// ReadTextFile returns the file contents as a string
func (p *Plugin) ReadTextFile(path string) (string, error) {
	data, err := p.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteTextFile replaces the file contents, creating the file if needed
func (p *Plugin) WriteTextFile(path, contents string) error {
	return p.WriteFile(path, []byte(contents))
}

// ReadFile returns the raw file contents
func (p *Plugin) ReadFile(path string) ([]byte, error) {
	abs, err := p.scope.Resolve("fs.read", path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	return data, wrap("fs.read", abs, err)
}

// WriteFile replaces the raw file contents, creating the file if needed
func (p *Plugin) WriteFile(path string, data []byte) error {
	abs, err := p.scope.Resolve("fs.write", path)
	if err != nil {
		return err
	}
	return wrap("fs.write", abs, os.WriteFile(abs, data, filePerm))
}

// ReadDir lists a directory, sorted by name
func (p *Plugin) ReadDir(path string) ([]DirEntry, error) {
	abs, err := p.scope.Resolve("fs.read_dir", path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, wrap("fs.read_dir", abs, err)
	}

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		entry := DirEntry{Name: e.Name(), Path: filepath.Join(abs, e.Name()), IsDir: e.IsDir()}
		if info, err := e.Info(); err == nil && !e.IsDir() {
			entry.Size = info.Size()
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Exists reports whether path exists; out-of-scope paths are an error, not false
func (p *Plugin) Exists(path string) (bool, error) {
	abs, err := p.scope.Resolve("fs.exists", path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrap("fs.exists", abs, err)
	}
	return true, nil
}

// Mkdir creates path and any missing parents
func (p *Plugin) Mkdir(path string) error {
	abs, err := p.scope.Resolve("fs.mkdir", path)
	if err != nil {
		return err
	}
	return wrap("fs.mkdir", abs, os.MkdirAll(abs, dirPerm))
}

// Remove deletes a file or an empty directory
func (p *Plugin) Remove(path string) error {
	abs, err := p.scope.Resolve("fs.remove", path)
	if err != nil {
		return err
	}
	return wrap("fs.remove", abs, os.Remove(abs))
}
