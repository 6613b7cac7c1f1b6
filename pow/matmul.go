package pow

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// matmulF32 reinterprets two raw little-endian byte regions as row-major
// dim x dim float32 matrices, multiplies them with a BLAS-equivalent
// routine (spec.md §4.1 step 4 permits any such routine; bit-for-bit
// determinism across platforms is explicitly not required), and returns the
// product's raw bytes in the same row-major little-endian layout.
//
// NaNs in the input bytes are allowed and propagate through the multiply
// untouched, as required by spec.md.
func matmulF32(dim int, aBytes, bBytes []byte) []byte {
	a := bytesToF32(aBytes, dim*dim)
	b := bytesToF32(bBytes, dim*dim)
	c := make([]float32, dim*dim)

	ga := blas32.General{Rows: dim, Cols: dim, Stride: dim, Data: a}
	gb := blas32.General{Rows: dim, Cols: dim, Stride: dim, Data: b}
	gc := blas32.General{Rows: dim, Cols: dim, Stride: dim, Data: c}

	blas32.Implementation().Sgemm(blas.NoTrans, blas.NoTrans, dim, dim, dim,
		1, ga.Data, ga.Stride, gb.Data, gb.Stride, 0, gc.Data, gc.Stride)

	return f32ToBytes(c)
}

func bytesToF32(b []byte, n int) []float32 {
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out
}

func f32ToBytes(f []float32) []byte {
	out := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(v))
	}
	return out
}
