// Package paths normalizes user-supplied media references into absolute
// filesystem paths or passthrough URLs.
package paths

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidPathFormat is returned when a value matches none of the
// recognized path grammars.
var ErrInvalidPathFormat = errors.New("invalid path format")

// DataDirName is the fixed base directory (under the working directory)
// that bare filenames and rooted subpaths resolve into.
const DataDirName = "data"

// ModelDirName is the directory model identifiers resolve into when no
// explicit model path is configured.
const ModelDirName = "models"

// filenamePattern accepts a bare filename: 1-255 characters of word
// characters, whitespace, dots or dashes, then a dot and a 1-10 character
// extension.
var filenamePattern = regexp.MustCompile(`^[\w\s.-]{1,255}\.\w{1,10}`)

// Resolve classifies value and returns either the input unchanged (URLs)
// or an absolute filesystem path. Classification precedence, first match
// wins:
//
//  1. "http" prefix: returned as-is, no filesystem interpretation.
//  2. Bare filename (filename grammar): joined under <cwd>/data.
//  3. "./" or "../" prefix: resolved against the working directory.
//  4. "/" prefix: the leading slash is stripped and the remainder is
//     joined under <cwd>/data.
//
// Anything else fails with ErrInvalidPathFormat before any path is built.
// Resolve never mutates process state; the result is a pure function of
// value and the current working directory.
func Resolve(value string) (string, error) {
	if strings.HasPrefix(value, "http") {
		return value, nil
	}

	if !filenamePattern.MatchString(value) && !hasPathPrefix(value) {
		return "", ErrInvalidPathFormat
	}

	if strings.HasPrefix(value, "./") || strings.HasPrefix(value, "../") {
		return filepath.Abs(value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	base := filepath.Join(cwd, DataDirName)

	if strings.HasPrefix(value, "/") {
		return filepath.Join(base, strings.TrimPrefix(value, "/")), nil
	}

	// Bare filename.
	return filepath.Join(base, value), nil
}

// ResolveModelPath returns path unchanged when set, otherwise defaults to
// <cwd>/models/<modelID>.
func ResolveModelPath(modelID, path string) (string, error) {
	if path != "" {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ModelDirName, modelID), nil
}

func hasPathPrefix(value string) bool {
	for _, prefix := range []string{"./", "../", "/"} {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
