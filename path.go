package wcedit

import (
	"fmt"
	"path"
	"strings"
)

// adminDirName is the reserved administrative directory name; no driven
// path may use it as a component (spec.md §7: "reserved-name collision").
const adminDirName = ".admin"

// joinPath joins a relative path component onto a parent absolute path,
// rejecting anything that would escape the parent or collide with the
// reserved administrative directory name. Every dispatcher entry point that
// receives a relpath from the producer routes it through here before
// touching the admin store or filesystem.
func joinPath(parent, relpath string) (string, error) {
	if relpath == "" {
		return "", fmt.Errorf("%w: empty path component", ErrPathEscape)
	}

	for _, comp := range strings.Split(relpath, "/") {
		switch comp {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q", ErrObstructedUpdate, relpath)
		case adminDirName:
			return "", fmt.Errorf("%w: %q", ErrReservedName, relpath)
		}
	}

	joined := path.Join(parent, relpath)
	if !strings.HasPrefix(joined, parent) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, relpath)
	}
	return joined, nil
}

// basename returns the final path component, the DirContext/FileContext
// "basename" field spec.md §3 lists.
func basename(abspath string) string {
	return path.Base(abspath)
}

// dirname returns the parent directory of abspath.
func dirname(abspath string) string {
	return path.Dir(abspath)
}
