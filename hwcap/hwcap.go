// Package hwcap is the process-wide hardware capability registry the runtime
// consults at startup, e.g. to pick vectorized copy routines.
//
// The original technique for this - executing a candidate instruction and
// recovering from the illegal-instruction fault in a signal handler - is not
// portable and is deliberately not used here. Capabilities come from an
// OS/architecture feature query (golang.org/x/sys/cpu) by default, or from
// whatever Provider the embedder installs before first use.
package hwcap

import "sync"

// Provider answers boolean hardware capability queries.
type Provider interface {
	// Has reports whether the named feature is available, e.g. "sse2".
	Has(feature string) bool
}

// FeatureSet is a map-backed Provider, convenient for embedders and tests.
type FeatureSet map[string]bool

// Has reports whether the named feature is present in the set.
func (f FeatureSet) Has(feature string) bool { return f[feature] }

var (
	initOnce sync.Once
	provider Provider
)

// Init installs p as the process-wide provider. Only the first call wins;
// Init reports whether this call installed its provider. Calling Has before
// any Init installs the platform default.
func Init(p Provider) bool {
	installed := false
	initOnce.Do(func() {
		provider = p
		installed = true
	})
	return installed
}

// Has queries the process-wide provider, installing the platform default on
// first use.
func Has(feature string) bool {
	initOnce.Do(func() {
		provider = Detect()
	})
	return provider.Has(feature)
}

// Detect builds the platform-default provider from the OS-exposed feature
// flags of the current architecture.
func Detect() Provider {
	return detect()
}
