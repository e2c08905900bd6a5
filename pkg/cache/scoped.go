package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// This is useful on the server where different users or projects need
// separate cache namespaces.
//
// Example usage:
//
//	// User-specific keys for private layouts
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for shared base maps
//	globalKeyer := NewDefaultKeyer()
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

// ImportKey generates a prefixed key for a parsed import.
func (k *ScopedKeyer) ImportKey(format, source string) string {
	return k.prefix + k.inner.ImportKey(format, source)
}

// LayoutKey generates a prefixed key for a layout result.
func (k *ScopedKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(modelHash, opts)
}

// RenderKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(layoutHash, opts)
}
