//go:build windows

package service

import "errors"

// Launch is a stub on Windows; manual mode is Unix-only.
func (h Handle) Launch(root, logDir string) (int, error) {
	return 0, errors.New("manual service launch is not supported on windows")
}
