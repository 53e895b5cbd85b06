package embedding

import (
	"math"
	"sync"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

var (
	sharedOnce sync.Once
	sharedEmb  domain.Embedder
	sharedErr  error
)

// Shared returns the process-wide embedder, building it with factory on the
// first call only. Every later call returns the same instance (or the same
// construction error); the factory is never re-run.
func Shared(factory func() (domain.Embedder, error)) (domain.Embedder, error) {
	sharedOnce.Do(func() {
		sharedEmb, sharedErr = factory()
	})
	return sharedEmb, sharedErr
}

// Normalize scales vec to unit L2 norm in place so that dot product equals
// cosine similarity. Zero vectors are left untouched.
func Normalize(vec []float64) {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	inv := 1 / math.Sqrt(norm)
	for i := range vec {
		vec[i] *= inv
	}
}
