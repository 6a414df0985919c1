package embedding

import (
	"context"
	"crypto/md5"
	"math"
	"strconv"
)

// DefaultDimension is the vector size of all-MiniLM-L6-v2.
const DefaultDimension = 384

// fallbackBlock is the stride between hashed blocks.
const fallbackBlock = 32

// FallbackVector derives a unit-length vector from the MD5 digests of text.
// For every offset 0, 32, 64, ... below dim the digest of
// "<preprocessed text>_<offset>" contributes one value per byte,
// (b-128)/128. The values are padded with zeros to dim and L2-normalized.
// Identical input always yields an identical vector.
func FallbackVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return fallbackFromCleaned(Preprocess(text), dim)
}

// fallbackFromCleaned hashes already preprocessed text. Preprocess is not
// idempotent, so callers holding cleaned text must not go through
// FallbackVector again.
func fallbackFromCleaned(cleaned string, dim int) []float32 {
	features := make([]float64, 0, dim)
	for offset := 0; offset < dim; offset += fallbackBlock {
		sum := md5.Sum([]byte(cleaned + "_" + strconv.Itoa(offset)))
		for _, b := range sum {
			features = append(features, (float64(b)-128)/128.0)
		}
	}
	if len(features) > dim {
		features = features[:dim]
	}

	var norm float64
	for _, f := range features {
		norm += f * f
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dim)
	for i, f := range features {
		if norm > 0 {
			f /= norm
		}
		out[i] = float32(f)
	}
	return out
}

// FallbackBackend embeds with FallbackVector. It never fails.
type FallbackBackend struct {
	dimension int
}

// NewFallbackBackend creates a FallbackBackend producing dim-sized vectors.
func NewFallbackBackend(dim int) *FallbackBackend {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &FallbackBackend{dimension: dim}
}

// Embed implements Backend.
func (f *FallbackBackend) Embed(_ context.Context, text string) ([]float32, error) {
	return FallbackVector(text, f.dimension), nil
}

// EmbedBatch implements Backend.
func (f *FallbackBackend) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = FallbackVector(text, f.dimension)
	}
	return out, nil
}

// vector embeds text that has already been preprocessed.
func (f *FallbackBackend) vector(cleaned string) []float32 {
	return fallbackFromCleaned(cleaned, f.dimension)
}

// Mode implements Backend.
func (f *FallbackBackend) Mode() Mode { return ModeFallback }

// Dimension returns the vector size.
func (f *FallbackBackend) Dimension() int { return f.dimension }
