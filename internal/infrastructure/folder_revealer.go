package infrastructure

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Folder-opening commands per platform
const (
	openCommand     = "open"
	explorerCommand = "explorer"
	xdgOpenCommand  = "xdg-open"
)

// OSFolderRevealer opens a directory in the platform file manager
type OSFolderRevealer struct {
	goos  string
	start func(name string, args ...string) error
}

// NewOSFolderRevealer creates a revealer for the running platform
func NewOSFolderRevealer() *OSFolderRevealer {
	return &OSFolderRevealer{
		goos:  runtime.GOOS,
		start: startDetached,
	}
}

// startDetached launches the command without waiting for the file manager to exit
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// Reveal opens dir, which must already be a validated absolute path
func (r *OSFolderRevealer) Reveal(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot open folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot open folder: %s is not a directory", dir)
	}

	name := revealCommand(r.goos)
	if err := r.start(name, dir); err != nil {
		return fmt.Errorf("cannot open folder with %s: %w", name, err)
	}
	return nil
}

func revealCommand(goos string) string {
	switch goos {
	case "darwin":
		return openCommand
	case "windows":
		return explorerCommand
	default:
		return xdgOpenCommand
	}
}
