package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrFileNotFound      = errors.New("file not found")
	ErrNotAFile          = errors.New("not a file")
	ErrParse             = errors.New("parse error")
	ErrRender            = errors.New("render error")
	ErrUnknownAction     = errors.New("unknown action")
	ErrExternalTool      = errors.New("external tool error")
	ErrConfiguration     = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RunFatal reports whether err invalidates a whole batch run rather than a
// single pair. Configuration mistakes affect every pair the same way.
func RunFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrUnknownAction), errors.Is(err, ErrConfiguration):
		return true
	default:
		return false
	}
}

// Kind returns a stable snake_case label for the marker carried by err. Errors
// without a known marker report "internal".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	kinds := []struct {
		marker error
		label  string
	}{
		{ErrInvalidIdentifier, "invalid_identifier"},
		{ErrFileNotFound, "file_not_found"},
		{ErrNotAFile, "not_a_file"},
		{ErrParse, "parse_error"},
		{ErrRender, "render_error"},
		{ErrUnknownAction, "unknown_action"},
		{ErrConfiguration, "configuration"},
		{ErrExternalTool, "external_tool"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	return "internal"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
