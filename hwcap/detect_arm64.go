//go:build arm64

package hwcap

import "golang.org/x/sys/cpu"

func detect() Provider {
	return FeatureSet{
		"asimd":   cpu.ARM64.HasASIMD,
		"aes":     cpu.ARM64.HasAES,
		"sha2":    cpu.ARM64.HasSHA2,
		"crc32":   cpu.ARM64.HasCRC32,
		"atomics": cpu.ARM64.HasATOMICS,
	}
}
