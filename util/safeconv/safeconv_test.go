package safeconv

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntSliceToUint32Slice(t *testing.T) {
	assert.Equal(t, []uint32{0, 0, 7, math.MaxUint32}, IntSliceToUint32Slice([]int{-5, 0, 7, math.MaxUint32}))
	assert.Empty(t, IntSliceToUint32Slice(nil))
}

func TestUint32SliceToIntSlice(t *testing.T) {
	assert.Equal(t, []int{0, 42, math.MaxUint32}, Uint32SliceToIntSlice([]uint32{0, 42, math.MaxUint32}))
}

func TestDurations(t *testing.T) {
	assert.Equal(t, uint64(0), DurationToU64(-time.Second))
	assert.Equal(t, uint64(time.Second), DurationToU64(time.Second))
	assert.Equal(t, time.Duration(math.MaxInt64), U64ToDuration(math.MaxUint64))
	assert.Equal(t, time.Millisecond, U64ToDuration(uint64(time.Millisecond)))
}
