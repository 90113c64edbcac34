//go:build windows

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow  = kernel32.NewProc("GetConsoleWindow")
	procFreeConsole       = kernel32.NewProc("FreeConsole")
	procGetConsoleProcess = kernel32.NewProc("GetConsoleProcessList")
)

// ownsConsole reports whether this process is the only one attached to the
// console, i.e. the console was created for us rather than inherited from a shell.
func ownsConsole() bool {
	if err := procGetConsoleProcess.Find(); err != nil {
		return false
	}
	var pids [2]uint32
	n, _, _ := procGetConsoleProcess.Call(uintptr(unsafe.Pointer(&pids[0])), uintptr(len(pids)))
	return n == 1
}

func detachConsole() bool {
	if err := procGetConsoleWindow.Find(); err != nil {
		return false
	}
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 || !ownsConsole() {
		return false
	}
	ret, _, _ := procFreeConsole.Call()
	return ret != 0
}
