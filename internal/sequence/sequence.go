// Package sequence parses and expands frame-number tokens in render paths.
//
// Render paths name image sequences with a placeholder for the frame number:
// hash runs ("####"), at runs ("@@@@"), or printf style ("%04d"), optionally
// wrapped in square brackets ("[####]"). The placeholder width defines the
// zero padding of the rendered files.
package sequence

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\[?(#+|@+|%0\dd)\]?`)

// Token describes a frame-number placeholder found in a path.
type Token struct {
	// Raw is the placeholder exactly as it appears, brackets included.
	Raw string
	// Padding is the zero-pad width of rendered frame numbers.
	Padding int
	// Offset is the byte offset of Raw within the path.
	Offset int
}

// Find locates the first frame-number token in path. The second return value
// reports whether a token was present.
func Find(path string) (Token, bool) {
	loc := tokenPattern.FindStringIndex(path)
	if loc == nil {
		return Token{}, false
	}
	raw := path[loc[0]:loc[1]]
	return Token{Raw: raw, Padding: tokenPadding(raw), Offset: loc[0]}, true
}

// HasToken reports whether path contains a frame-number token.
func HasToken(path string) bool {
	return tokenPattern.MatchString(path)
}

func tokenPadding(raw string) int {
	inner := strings.Trim(raw, "[]")
	if strings.HasPrefix(inner, "%0") {
		width, err := strconv.Atoi(inner[2 : len(inner)-1])
		if err != nil {
			return len(inner)
		}
		return width
	}
	return len(inner)
}

// FramePath substitutes frame into the first token of path, zero padded to
// the token's width. Paths without a token are returned unchanged.
func FramePath(path string, frame int) string {
	token, ok := Find(path)
	if !ok {
		return path
	}
	number := fmt.Sprintf("%0*d", token.Padding, frame)
	return path[:token.Offset] + number + path[token.Offset+len(token.Raw):]
}

// Expand lists the concrete file paths of a rendered sequence: frames
// start, start+stride, ... for count frames. A path without a token yields
// just itself, matching single-file movie renders.
func Expand(path string, start, count, stride int) []string {
	if !HasToken(path) {
		return []string{path}
	}
	if count < 1 {
		return nil
	}
	if stride < 1 {
		stride = 1
	}
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		paths = append(paths, FramePath(path, start+i*stride))
	}
	return paths
}

// GlobPattern replaces the token in path with a wildcard suitable for
// filepath.Glob.
func GlobPattern(path string) string {
	token, ok := Find(path)
	if !ok {
		return path
	}
	return path[:token.Offset] + "*" + path[token.Offset+len(token.Raw):]
}

// Range scans the filesystem for rendered frames of path and returns the
// lowest and highest frame number found. It returns ok=false when the path
// has no token or no frames exist on disk.
func Range(path string) (first, last int, ok bool, err error) {
	token, found := Find(path)
	if !found {
		return 0, 0, false, nil
	}

	matches, err := filepath.Glob(GlobPattern(path))
	if err != nil {
		return 0, 0, false, fmt.Errorf("glob sequence %s: %w", path, err)
	}

	prefix := path[:token.Offset]
	suffix := path[token.Offset+len(token.Raw):]

	for _, match := range matches {
		if !strings.HasPrefix(match, prefix) || !strings.HasSuffix(match, suffix) {
			continue
		}
		middle := match[len(prefix) : len(match)-len(suffix)]
		frame, convErr := strconv.Atoi(middle)
		if convErr != nil {
			continue
		}
		if !ok || frame < first {
			first = frame
		}
		if !ok || frame > last {
			last = frame
		}
		ok = true
	}
	return first, last, ok, nil
}
