package crawler

import (
	"fmt"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Resolve turns link, found on the page at origin, into an absolute URL key.
//
// A link with a scheme is returned unchanged. A root-relative link is
// appended to the origin's scheme and authority. Anything else is appended
// to the origin's directory. Dot segments are then removed so that links
// spelled differently but naming the same page produce the same key.
func Resolve(link, origin string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if hasScheme(link) {
		return link
	}

	base := stripQuery(origin)
	root := authority(base)

	switch {
	case strings.HasPrefix(link, "//"):
		if i := strings.Index(root, "://"); i >= 0 {
			return removeDotSegments(root[:i+1] + link)
		}
		return removeDotSegments(link)
	case strings.HasPrefix(link, "/"):
		return removeDotSegments(root + link)
	}

	var dir string
	switch rest := base[len(root):]; {
	case !strings.Contains(base, "://"):
		dir = base[:strings.LastIndex(base, "/")+1]
	case rest == "":
		dir = root + "/"
	default:
		dir = root + rest[:strings.LastIndex(rest, "/")+1]
	}
	return removeDotSegments(dir + link)
}

// hasScheme reports whether s starts with an RFC 3986 scheme followed by ':'.
func hasScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}

// authority returns scheme://host[:port] of u, or u itself when it has none.
func authority(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return u
	}
	if j := strings.IndexByte(u[i+3:], '/'); j >= 0 {
		return u[:i+3+j]
	}
	return u
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

// removeDotSegments cleans "." and ".." path segments, leaving the rest of
// the URL, query and fragment included, untouched.
func removeDotSegments(u string) string {
	root := authority(u)
	rest := u[len(root):]
	suffix := ""
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest, suffix = rest[:i], rest[i:]
	}
	if !hasDotSegment(rest) {
		return u
	}

	cleaned := path.Clean("/" + rest)
	if strings.HasSuffix(rest, "/") || strings.HasSuffix(rest, "/.") || strings.HasSuffix(rest, "/..") {
		if cleaned != "/" {
			cleaned += "/"
		}
	}
	return root + cleaned + suffix
}

func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

type resolveKey struct {
	link   string
	origin string
}

// Resolver memoises Resolve in a bounded LRU cache. Catalog pages repeat the
// same sidebar and pagination links, so most lookups hit.
type Resolver struct {
	cache *lru.Cache[resolveKey, string]
}

// NewResolver builds a resolver caching up to size entries.
func NewResolver(size int) (*Resolver, error) {
	cache, err := lru.New[resolveKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("create resolver cache: %w", err)
	}
	return &Resolver{cache: cache}, nil
}

// Resolve returns the same value as the package-level Resolve.
func (r *Resolver) Resolve(link, origin string) string {
	if r == nil || r.cache == nil {
		return Resolve(link, origin)
	}
	key := resolveKey{link: link, origin: origin}
	if abs, ok := r.cache.Get(key); ok {
		return abs
	}
	abs := Resolve(link, origin)
	r.cache.Add(key, abs)
	return abs
}

// Len reports the number of cached resolutions.
func (r *Resolver) Len() int {
	if r == nil || r.cache == nil {
		return 0
	}
	return r.cache.Len()
}
