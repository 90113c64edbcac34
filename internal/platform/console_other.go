//go:build !windows

package platform

// Only Windows attaches a console window to GUI processes.
func detachConsole() bool {
	return false
}
