package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProgress(t *testing.T) {
	p := NewProgress("a.txt", 5, 10)
	assert.True(t, p.Known)
	assert.InDelta(t, 50.0, p.Percent, 0.001)

	assert.InDelta(t, 100.0, NewProgress("", 15, 10).Percent, 0.001)
	assert.InDelta(t, 0.0, NewProgress("", -3, 10).Percent, 0.001)

	unknown := NewProgress("b", 4096, -1)
	assert.False(t, unknown.Known)
	assert.Zero(t, unknown.Percent)
}

func TestCompleted_ZeroBytes(t *testing.T) {
	p := Completed("empty.txt", 0)
	assert.True(t, p.Known)
	assert.Equal(t, 100.0, p.Percent)
	assert.Zero(t, p.Done)
}

func TestMeter_Monotonic(t *testing.T) {
	var got []float64
	m := NewMeter(func(p Progress) { got = append(got, p.Percent) })

	m.Report(NewProgress("", 2, 10))
	m.Report(NewProgress("", 1, 10))
	m.Report(NewProgress("", 7, 10))
	m.Report(NewProgress("", 20, 10))

	assert.Equal(t, []float64{20, 20, 70, 100}, got)
}

func TestMeter_NilSafe(t *testing.T) {
	var m *Meter
	m.Report(NewProgress("", 1, 2))
	NewMeter(nil).Report(NewProgress("", 1, 2))
}
