// Package fsutil resolves configured file paths.
package fsutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// ResolveExecutable turns a configured binary into an absolute path. Bare
// names are looked up on PATH; paths may start with '~'. The result must be
// a regular, executable file.
func ResolveExecutable(bin string) (string, error) {
	bin = strings.TrimSpace(bin)
	if bin == "" {
		return "", fmt.Errorf("empty executable name")
	}
	if !strings.ContainsRune(bin, filepath.Separator) && !strings.HasPrefix(bin, "~") {
		p, err := exec.LookPath(bin)
		if err != nil {
			return "", fmt.Errorf("find %s: %w", bin, err)
		}
		return filepath.Abs(p)
	}
	p, err := ExpandHome(bin)
	if err != nil {
		return "", err
	}
	p, err = filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if fi.IsDir() || fi.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("%s is not an executable file", p)
	}
	return p, nil
}
