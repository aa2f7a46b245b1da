package domain

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// shellMetaChars are rejected anywhere in a submitted URL
const shellMetaChars = ";&|`$<>'\"\\"

// allowedSchemes lists the URL schemes accepted for downloads
var allowedSchemes = map[string]bool{"http": true, "https": true}

// ValidateURL trims raw and checks that it is a plain http(s) URL with a host.
// The check is purely syntactic, no network access is performed. On success the
// trimmed input is returned unchanged.
func ValidateURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", NewValidationError("url", "empty")
	}

	if strings.ContainsAny(u, shellMetaChars) {
		return "", NewValidationError("url", "contains shell metacharacters")
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return "", NewValidationError("url", "not a valid URI")
	}

	if !allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return "", NewValidationError("url", "only http and https links are accepted")
	}

	if parsed.Hostname() == "" {
		return "", NewValidationError("url", "missing host")
	}

	return u, nil
}

// ValidatePath expands a leading ~ and resolves raw to an absolute path with
// symlinks resolved. Components that do not exist yet are kept as written.
// Nothing is created on disk.
func ValidatePath(raw string) (string, error) {
	if strings.ContainsRune(raw, 0) {
		return "", NewValidationError("path", "contains a null byte")
	}

	path, err := expandHome(raw)
	if err != nil {
		return "", NewValidationError("path", err.Error())
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewValidationError("path", err.Error())
	}

	resolved, err := resolveSymlinks(abs)
	if err != nil {
		return "", NewValidationError("path", err.Error())
	}

	return resolved, nil
}

// expandHome replaces a leading "~" or "~/" with the user's home directory
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// resolveSymlinks behaves like realpath: the longest existing prefix is
// resolved and the missing remainder is appended verbatim.
func resolveSymlinks(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return abs, nil
	}

	resolvedParent, err := resolveSymlinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(abs)), nil
}
