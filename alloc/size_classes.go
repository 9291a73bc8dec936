package alloc

import "math"

// Config defines the size class strategy for the segregated free lists.
// Different configurations trade lookup granularity against the number of
// stacks that have to be maintained.
type Config struct {
	// Name for this configuration (for benchmarking).
	Name string

	// Small chunk settings (linear increments).
	SmallMin  int // minimum chunk size (16)
	SmallMax  int // upper end of the linear range
	SmallStep int // increment between small classes

	// LargeMin is the chunk size at which the best-fit large list takes
	// over from the class stacks.
	LargeMin int

	// Growth is the multiplicative factor between medium classes.
	Growth float64
}

// Predefined configurations.
var (
	// ConfigFineGrained favours low internal fragmentation: many narrow
	// classes over the sizes a mutator allocates most.
	ConfigFineGrained = Config{
		Name:      "FineGrained",
		SmallMin:  16,
		SmallMax:  256,
		SmallStep: 8,
		LargeMin:  16384,
		Growth:    1.5,
	}

	// ConfigBalanced is the default: 16-512 step 16, then multiplicative
	// growth up to 16K.
	ConfigBalanced = Config{
		Name:      "Balanced",
		SmallMin:  16,
		SmallMax:  512,
		SmallStep: 16,
		LargeMin:  16384,
		Growth:    1.5,
	}

	// ConfigCoarse keeps few classes for workloads dominated by large
	// object arrays, at the cost of more internal fragmentation.
	ConfigCoarse = Config{
		Name:      "Coarse",
		SmallMin:  16,
		SmallMax:  512,
		SmallStep: 32,
		LargeMin:  16384,
		Growth:    2.0,
	}

	// DefaultConfig is used when the space does not pick one explicitly.
	DefaultConfig = ConfigBalanced
)

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config     Config
	boundaries []int // inclusive upper bound of each class
}

// newSizeClassTable computes class boundaries from config.
func newSizeClassTable(config Config) *sizeClassTable {
	t := &sizeClassTable{config: config}

	// Linear small classes.
	for size := config.SmallMin; size < config.SmallMax; size += config.SmallStep {
		t.boundaries = append(t.boundaries, size+config.SmallStep-1)
	}

	// Multiplicative medium classes up to the large threshold.
	size := config.SmallMax
	for size < config.LargeMin {
		next := int(math.Ceil(float64(size) * config.Growth))
		if next <= size {
			next = size + 1
		}
		t.boundaries = append(t.boundaries, next-1)
		size = next
	}
	return t
}

// numClasses returns the number of size classes (excluding the large list).
func (t *sizeClassTable) numClasses() int {
	return len(t.boundaries)
}

// classFor returns the class index whose range contains size, or numClasses
// for sizes that belong on the large list.
func (t *sizeClassTable) classFor(size int) int {
	lo, hi := 0, len(t.boundaries)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return len(t.boundaries)
}
