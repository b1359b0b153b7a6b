package cache

import "fmt"

// Keyer builds cache keys for repository queries.
type Keyer interface {
	// MergeBaseKey is the key for the merge base of two commit ids. The
	// key does not depend on argument order.
	MergeBaseKey(a, b string) string

	// DistanceKey is the key for the number of commits in from..to.
	DistanceKey(from, to string) string

	// RenderKey is the key for a diagram rendered from source in format.
	RenderKey(source, format string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a keyer without a namespace.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MergeBaseKey implements Keyer.
func (DefaultKeyer) MergeBaseKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("mergebase:%s:%s", a, b)
}

// DistanceKey implements Keyer.
func (DefaultKeyer) DistanceKey(from, to string) string {
	return fmt.Sprintf("distance:%s:%s", from, to)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(source, format string) string {
	return hashKey("render", Hash([]byte(source)), format)
}
