package cache

// ScopedKeyer wraps a Keyer with a prefix, isolating cache namespaces
// when several taxonomies (or several root subtrees of one taxonomy)
// share a backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(inputHash, opts)
}

// TileKey generates a prefixed tile key.
func (k *ScopedKeyer) TileKey(layoutHash string, opts TileKeyOpts) string {
	return k.prefix + k.inner.TileKey(layoutHash, opts)
}
