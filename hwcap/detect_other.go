//go:build !amd64 && !386 && !arm64

package hwcap

// No feature flags wired up for this architecture; every query is false.
func detect() Provider {
	return FeatureSet{}
}
