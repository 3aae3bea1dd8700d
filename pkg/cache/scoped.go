package cache

// ScopedKeyer prefixes every key of an inner Keyer, so tenants sharing a
// Redis or Mongo backend never read each other's entries.
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "team:cv-studio:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ExtractKey(canvasHash string, opts ExtractKeyOpts) string {
	return k.prefix + k.inner.ExtractKey(canvasHash, opts)
}

func (k *ScopedKeyer) ComposeKey(documentHash string) string {
	return k.prefix + k.inner.ComposeKey(documentHash)
}

func (k *ScopedKeyer) RenderKey(documentHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(documentHash, opts)
}

func (k *ScopedKeyer) PlanKey(documentHash string) string {
	return k.prefix + k.inner.PlanKey(documentHash)
}
