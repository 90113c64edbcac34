// Package platform holds the few OS-specific touches the shell needs.
package platform

// SuppressConsole detaches the console window a release build would otherwise
// show next to the app window. Debug runs keep it. Returns whether a console
// was released.
func SuppressConsole(debug bool) bool {
	if debug {
		return false
	}
	return detachConsole()
}
