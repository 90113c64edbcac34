package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "sm4desk/internal/infrastructure/errors"
)

// Scope decides which paths the front-end may touch: anything under an
// allowed root, plus single paths granted at runtime (e.g. picked in a dialog).
// Checks run on the symlink-resolved path, so a link inside a root cannot
// lead outside it.
//
// Scope is not bound to the front-end; only the host side may widen it.
type Scope struct {
	mu      sync.RWMutex
	roots   []string
	granted map[string]struct{}
}

// NewScope creates a scope over the given root directories
func NewScope(roots ...string) (*Scope, error) {
	s := &Scope{granted: make(map[string]struct{})}
	for _, root := range roots {
		abs, err := normalise(root)
		if err != nil {
			return nil, err
		}
		s.roots = append(s.roots, realPath(abs))
	}
	return s, nil
}

func normalise(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", apperrors.New("fs.scope", fmt.Errorf("path is empty"), apperrors.ErrCodeValidation)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", apperrors.NewWithContext("fs.scope", err, apperrors.ErrCodeValidation,
			map[string]string{"path": path})
	}
	return filepath.Clean(abs), nil
}

// realPath resolves symlinks in abs. Missing trailing components (a file
// about to be written) are resolved through their nearest existing parent.
func realPath(abs string) string {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return abs
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}
	return filepath.Join(realPath(parent), filepath.Base(abs))
}

// within reports whether path equals root or lies below it
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Grant allows a single path outside the roots
func (s *Scope) Grant(path string) error {
	abs, err := normalise(path)
	if err != nil {
		return err
	}
	resolved := realPath(abs)

	s.mu.Lock()
	s.granted[resolved] = struct{}{}
	s.mu.Unlock()
	return nil
}

// GrantDir allows a directory and everything below it
func (s *Scope) GrantDir(path string) error {
	abs, err := normalise(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return apperrors.NewWithContext("fs.scope", fmt.Errorf("not a directory"), apperrors.ErrCodeValidation,
			map[string]string{"path": abs})
	}
	resolved := realPath(abs)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, root := range s.roots {
		if within(root, resolved) {
			return nil
		}
	}
	s.roots = append(s.roots, resolved)
	return nil
}

// Resolve returns the absolute form of path if it is allowed
func (s *Scope) Resolve(op, path string) (string, error) {
	abs, err := normalise(path)
	if err != nil {
		return "", err
	}
	resolved := realPath(abs)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.granted[resolved]; ok {
		return abs, nil
	}
	for _, root := range s.roots {
		if within(root, resolved) {
			return abs, nil
		}
	}

	return "", apperrors.NewWithContext(op, apperrors.ErrOutOfScope, apperrors.ErrCodePermission,
		map[string]string{"path": abs})
}

// Roots returns the allowed root directories, granted directories included
func (s *Scope) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.roots...)
}
