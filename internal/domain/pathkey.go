package domain

import (
	"path"
	"strings"
)

// PathKey is the canonical identity of one tracked file: forward-slash
// separated, root-relative, with no leading "./" and no leading workspace
// container segment. Two keys are equal iff they denote the same file.
type PathKey string

// workspaceContainer is the conventional top-level folder that holds the
// tracked corpus; it is stripped from keys so that keys stay stable when the
// corpus is checked out with or without the container directory.
const workspaceContainer = "workspace"

// NormalizePathKey canonicalizes an absolute or mixed-separator path into a
// PathKey relative to root. When root is not a prefix of the path the input is
// normalized as-is rather than rejected; key derivation must never be fatal.
// The function is idempotent: re-normalizing an already-relative key returns
// the same key.
func NormalizePathKey(root, p string) PathKey {
	candidate := foldSeparators(p)
	base := foldSeparators(root)
	if base != "" {
		base = strings.TrimSuffix(base, "/")
		if candidate == base {
			candidate = ""
		} else if strings.HasPrefix(candidate, base+"/") {
			candidate = candidate[len(base)+1:]
		}
	}
	return PathKey(stripContainer(cleanRelative(candidate)))
}

// JoinKey builds a PathKey from a ledger-style directory (for example
// "./dir/subdir") and a filename, applying the same canonicalization rules as
// NormalizePathKey, including the container strip.
func JoinKey(directory, filename string) PathKey {
	dir := stripContainer(cleanRelative(foldSeparators(directory)))
	name := cleanRelative(foldSeparators(filename))
	if dir == "" {
		return PathKey(name)
	}
	return PathKey(path.Join(dir, name))
}

// SplitKey decomposes a PathKey into the persisted (path, filename) pair. The
// directory part carries the conventional "./" prefix used by the ledger file.
func SplitKey(key PathKey) (directory, filename string) {
	k := string(key)
	filename = path.Base(k)
	dir := path.Dir(k)
	if dir == "." || dir == "/" {
		return "./", filename
	}
	return "./" + dir, filename
}

// String returns the key as a plain string.
func (k PathKey) String() string {
	return string(k)
}

// HasPrefixDir reports whether the key lives under the given directory key.
func (k PathKey) HasPrefixDir(dir PathKey) bool {
	if dir == "" {
		return k != ""
	}
	return strings.HasPrefix(string(k), string(dir)+"/")
}

// Ext returns the lower-cased filename extension including the dot.
func (k PathKey) Ext() string {
	return strings.ToLower(path.Ext(string(k)))
}

// stripContainer removes leading workspace container segments. It strips
// until no such segment remains, so applying key derivation to an already
// derived key changes nothing.
func stripContainer(p string) string {
	for {
		if p == workspaceContainer {
			return ""
		}
		rest := strings.TrimPrefix(p, workspaceContainer+"/")
		if rest == p {
			return p
		}
		p = rest
	}
}

// foldSeparators rewrites backslash-separated segments into forward slashes.
func foldSeparators(p string) string {
	return strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
}

// cleanRelative collapses dot segments and strips any leading "./" or "/".
func cleanRelative(p string) string {
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." || p == "/" {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}
