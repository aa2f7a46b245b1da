package main

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/novastream/novastream-go/internal/domain"
)

var (
	errClipboardRead = errors.New("failed to read from clipboard")
	errClipboardURL  = errors.New("clipboard does not contain a valid http(s) link")
)

// readClipboard is replaced in tests
var readClipboard = clipboard.ReadAll

// urlFromClipboard returns the clipboard content when it passes URL validation
func urlFromClipboard() (string, error) {
	text, err := readClipboard()
	if err != nil {
		return "", errClipboardRead
	}
	text = strings.TrimSpace(text)
	if strings.ContainsAny(text, "\r\n") {
		return "", errClipboardURL
	}
	url, err := domain.ValidateURL(text)
	if err != nil {
		return "", errClipboardURL
	}
	return url, nil
}
