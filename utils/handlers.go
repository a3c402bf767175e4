package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/tuneinsight/lattigo/v6/utils/sampling"
)

// HandleError checks the error and throws a panic if the error isn't nil
func HandleError(err error) {
	if err != nil {
		fmt.Printf("|-> Error: %s\n", err.Error())
		panic("=== Panic\n ")
	}
}

// RandomFloatVector generates n floating point values between min and max,
// useful as test inputs for the comparison circuits.
func RandomFloatVector(n int, min, max float64) (data []float64) {
	data = make([]float64, n)
	for i := range data {
		data[i] = sampling.RandFloat64(min, max)
	}
	return
}

// RandUint64 return a random value between 0 and 0xFFFFFFFFFFFFFFFF
func RandUint64() uint64 {
	b := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return binary.BigEndian.Uint64(b)
}

// MinInt returns the minimum value of the input of int values.
func MinInt(a, b int) (r int) {
	if a <= b {
		return a
	}
	return b
}

// MaxInt returns the maximum value of the input of int values.
func MaxInt(a, b int) (r int) {
	if a >= b {
		return a
	}
	return b
}

// ArgminFloat64 returns the position of the smallest element of v.
// Reference result for checking the encrypted circuit.
func ArgminFloat64(v []float64) (idx int) {
	for i := range v {
		if v[i] < v[idx] {
			idx = i
		}
	}
	return
}

// RotateFloat64Slice returns a new slice corresponding to s rotated by k
// positions to the left.
func RotateFloat64Slice(s []float64, k int) []float64 {
	if k == 0 || len(s) == 0 {
		return s
	}
	r := k % len(s)
	if r < 0 {
		r = r + len(s)
	}
	ret := make([]float64, len(s))
	copy(ret[:len(s)-r], s[r:])
	copy(ret[len(s)-r:], s[:r])
	return ret
}
