package cache

// ScopedKeyer wraps a Keyer with a prefix so that several repositories can
// share one cache backend.
//
// Example usage:
//
//	// Keys for one repository in a shared redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "repo:"+Hash([]byte(path))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// MergeBaseKey generates a prefixed merge-base key.
func (k *ScopedKeyer) MergeBaseKey(a, b string) string {
	return k.prefix + k.inner.MergeBaseKey(a, b)
}

// DistanceKey generates a prefixed distance key.
func (k *ScopedKeyer) DistanceKey(from, to string) string {
	return k.prefix + k.inner.DistanceKey(from, to)
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(source, format string) string {
	return k.prefix + k.inner.RenderKey(source, format)
}
