package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddItem(t *testing.T) {
	buf := NewBuffer(10)

	for i := 0; i < 10; i++ {
		buf.AddItem(1)
	}

	a, mn, mx, s := buf.GetAverageMinMaxSum()

	assert.Equal(t, Average(1), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(1), mx)
	assert.Equal(t, Sum(10), s)

	buf.AddItem(10)

	a, mn, mx, s = buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(1.9), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(10), mx)
	assert.Equal(t, Sum(19), s)
	assert.Equal(t, float64(10), buf.GetLast())
}

func TestFirstItemFills(t *testing.T) {
	buf := NewBuffer(20)
	buf.AddItem(-3.5)

	a, mn, mx, s := buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(-3.5), a)
	assert.Equal(t, Minimum(-3.5), mn)
	assert.Equal(t, Maximum(-3.5), mx)
	assert.Equal(t, Sum(-70), s)
}

func TestReset(t *testing.T) {
	buf := NewBuffer(4)
	buf.AddItem(8)
	buf.AddItem(2)
	buf.Reset()
	buf.AddItem(5)

	a, _, _, _ := buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(5), a)
}
