//go:build amd64 || 386

package hwcap

import "golang.org/x/sys/cpu"

func detect() Provider {
	return FeatureSet{
		"sse2":   cpu.X86.HasSSE2,
		"sse41":  cpu.X86.HasSSE41,
		"sse42":  cpu.X86.HasSSE42,
		"avx":    cpu.X86.HasAVX,
		"avx2":   cpu.X86.HasAVX2,
		"popcnt": cpu.X86.HasPOPCNT,
		"aes":    cpu.X86.HasAES,
	}
}
