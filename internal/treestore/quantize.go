package treestore

import "github.com/x448/float16"

// quantizeCentroid packs a centroid into float16 bits for storage.
func quantizeCentroid(c [3]float64) [3]uint16 {
	return [3]uint16{
		float16.Fromfloat32(float32(c[0])).Bits(),
		float16.Fromfloat32(float32(c[1])).Bits(),
		float16.Fromfloat32(float32(c[2])).Bits(),
	}
}

// dequantizeCentroid restores an approximate centroid from float16 bits.
func dequantizeCentroid(q [3]uint16) [3]float64 {
	return [3]float64{
		float64(float16.Frombits(q[0]).Float32()),
		float64(float16.Frombits(q[1]).Float32()),
		float64(float16.Frombits(q[2]).Float32()),
	}
}
