package identity

import (
	"strconv"
	"strings"

	"github.com/spatialgw/spatialworker/engine/common"
)

const (
	pathSeparator  = "/"
	entityPathMark = "#"
)

// cleanPath collapses duplicate separators and drops the trailing separator
func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	rooted := strings.HasPrefix(p, pathSeparator)
	parts := strings.Split(p, pathSeparator)
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	s := strings.Join(kept, pathSeparator)
	if rooted {
		s = pathSeparator + s
	}
	return s
}

// splitEntityPath converts "#<id>[/sub/path]" into the entity addressed form
func splitEntityPath(p string) (ObjectRef, bool) {
	if !strings.HasPrefix(p, entityPathMark) {
		return ObjectRef{}, false
	}
	rest := p[len(entityPathMark):]
	sub := ""
	if i := strings.Index(rest, pathSeparator); i >= 0 {
		rest, sub = rest[:i], rest[i+1:]
	}
	id, err := common.ParseEntityID(rest)
	if err != nil || !id.IsValid() {
		return ObjectRef{}, false
	}
	return ObjectRef{Entity: id, Path: sub}, true
}

// rootSegment returns the bounds of the first path segment
func rootSegment(p string) (start, end int) {
	if strings.HasPrefix(p, pathSeparator) {
		start = 1
	}
	end = strings.Index(p[start:], pathSeparator)
	if end < 0 {
		end = len(p)
	} else {
		end += start
	}
	return
}

// RemapOnRead canonicalizes the addressing of an object reference read from (isReading)
// or written to the network. Applying it twice in the same direction is a no-op.
func (c *Cache) RemapOnRead(ref ObjectRef, isReading bool) ObjectRef {
	ref.Path = cleanPath(ref.Path)
	if ref.Entity != common.InvalidEntityID {
		return ref
	}
	if eref, ok := splitEntityPath(ref.Path); ok {
		return eref
	}
	if c.pathPrefix == "" || ref.Path == "" {
		return ref
	}

	start, end := rootSegment(ref.Path)
	root := ref.Path[start:end]
	if root == "" {
		return ref
	}
	if isReading {
		if !strings.HasPrefix(root, c.pathPrefix) {
			ref.Path = ref.Path[:start] + c.pathPrefix + ref.Path[start:]
		}
		return ref
	}
	// strip every stacked prefix, keeping the root segment non-empty
	stripped := root
	for strings.HasPrefix(stripped, c.pathPrefix) && len(stripped) > len(c.pathPrefix) {
		stripped = stripped[len(c.pathPrefix):]
	}
	if stripped != root {
		ref.Path = ref.Path[:start] + stripped + ref.Path[end:]
	}
	return ref
}

// FormatEntityPath returns the "#<id>/sub" path form of an entity addressed reference
func FormatEntityPath(ref ObjectRef) string {
	s := entityPathMark + strconv.FormatInt(int64(ref.Entity), 10)
	if ref.Path != "" {
		s += pathSeparator + ref.Path
	}
	return s
}
