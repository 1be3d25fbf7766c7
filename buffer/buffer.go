package buffer

import (
	"math"
	"sync"
)

type Average float64
type Minimum float64
type Maximum float64
type Sum float64

func (a Average) Float64() float64 {
	return float64(a)
}

// SampleBuffer is a fixed size ring of float samples. The first sample
// written fills the whole ring so averages are meaningful straight away.
type SampleBuffer struct {
	position int
	size     int
	data     []float64
	lock     sync.Mutex
	first    bool
}

func NewBuffer(size int) *SampleBuffer {
	if size < 1 {
		size = 1
	}
	b := SampleBuffer{
		first: true,
		size:  size,
		data:  make([]float64, size),
	}
	return &b
}

func (b *SampleBuffer) AddItem(val float64) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.first {
		for i := range b.data {
			b.data[i] = val
		}
		b.first = false
	}
	b.data[b.position] = val
	b.position++
	if b.position == b.size {
		b.position = 0
	}
}

// Reset discards every sample; the next AddItem refills the ring.
func (b *SampleBuffer) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i := range b.data {
		b.data[i] = 0
	}
	b.position = 0
	b.first = true
}

func (b *SampleBuffer) GetAverageMinMaxSum() (Average, Minimum, Maximum, Sum) {
	b.lock.Lock()
	defer b.lock.Unlock()
	min := math.MaxFloat64
	max := -math.MaxFloat64
	sum := 0.0

	for _, x := range b.data {
		if x > max {
			max = x
		}
		if x < min {
			min = x
		}
		sum += x
	}

	return Average(sum / float64(b.size)), Minimum(min), Maximum(max), Sum(sum)
}

func (b *SampleBuffer) GetSize() int {
	return b.size
}

func (b *SampleBuffer) GetLast() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	index := b.position - 1
	if index < 0 {
		index += b.size
	}
	return b.data[index]
}
