// Package dataset provides a synthetic example index and minibatch
// assembler for benchmarking and tests.
//
// The assembled minibatches carry a detection-style schema: an image
// tensor, per-image labels, and per-image metadata. Buffer contents are
// deterministic functions of the example index, so tests can recover
// which examples a minibatch was derived from.
package dataset

import (
	"errors"
	"fmt"

	"github.com/mlpipe/prefetch/internal/blob"
	"github.com/mlpipe/prefetch/internal/loader"
)

// Blob names emitted by the synthetic assembler.
const (
	BlobData   = "data"
	BlobLabels = "labels"
	BlobImInfo = "im_info"
)

var errCorrupt = errors.New("corrupt example data")

// Synthetic is an in-memory dataset of generated examples. It implements
// both loader.Index and loader.Assembler.
type Synthetic struct {
	size       int
	imageSize  int
	numClasses int
	failing    map[int]bool
}

// NewSynthetic creates a dataset of size examples with square images of
// imageSize pixels and labels in [0, numClasses).
func NewSynthetic(size, imageSize, numClasses int) *Synthetic {
	return &Synthetic{
		size:       size,
		imageSize:  imageSize,
		numClasses: numClasses,
		failing:    make(map[int]bool),
	}
}

// WithFailing marks examples whose assembly always fails, for exercising
// the pipeline's failure recovery.
func (s *Synthetic) WithFailing(indices ...int) *Synthetic {
	for _, i := range indices {
		s.failing[i] = true
	}
	return s
}

// Len returns the number of examples.
func (s *Synthetic) Len() int { return s.size }

// Schema returns the fixed output schema.
func (s *Synthetic) Schema() blob.Schema {
	return blob.Schema{
		{Name: BlobData, DType: blob.Float32, Rank: 4},
		{Name: BlobLabels, DType: blob.Int32, Rank: 1},
		{Name: BlobImInfo, DType: blob.Float32, Rank: 2},
	}
}

// Assemble builds one minibatch from the given example indices. A failing
// example yields an *loader.AssemblyError identifying it.
func (s *Synthetic) Assemble(indices []int) (blob.Minibatch, error) {
	n := len(indices)
	perImage := 3 * s.imageSize * s.imageSize

	data := make([]float32, n*perImage)
	labels := make([]int32, n)
	imInfo := make([]float32, n*3)

	for i, idx := range indices {
		if idx < 0 || idx >= s.size {
			return nil, &loader.AssemblyError{Example: idx, Err: fmt.Errorf("index out of range [0,%d)", s.size)}
		}
		if s.failing[idx] {
			return nil, &loader.AssemblyError{Example: idx, Err: errCorrupt}
		}
		// Deterministic fill so consumers can identify the source example.
		pixel := float32(idx)
		for j := i * perImage; j < (i+1)*perImage; j++ {
			data[j] = pixel
		}
		labels[i] = int32(idx % s.numClasses)
		imInfo[i*3] = float32(s.imageSize)
		imInfo[i*3+1] = float32(s.imageSize)
		imInfo[i*3+2] = 1.0
	}

	return blob.Minibatch{
		BlobData: {
			DType:    blob.Float32,
			Shape:    []int{n, 3, s.imageSize, s.imageSize},
			Float32s: data,
		},
		BlobLabels: {
			DType:  blob.Int32,
			Shape:  []int{n},
			Int32s: labels,
		},
		BlobImInfo: {
			DType:    blob.Float32,
			Shape:    []int{n, 3},
			Float32s: imInfo,
		},
	}, nil
}
