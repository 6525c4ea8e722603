package series

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func barAt(i int) model.Bar {
	p := 100 + float64(i)
	return model.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: p, High: p + 1, Low: p - 1, Close: p}
}

func TestStore_GetUnknownSymbol(t *testing.T) {
	s := NewStore(0, nil)
	assert.Equal(t, DefaultCapacity, s.Capacity())
	assert.Empty(t, s.Get("BTCUSDT"))
	assert.False(t, s.Has("BTCUSDT"))
}

func TestStore_Eviction(t *testing.T) {
	s := NewStore(100, nil)
	for i := 0; i < 100; i++ {
		s.Append("EUR/USD", barAt(i))
	}
	before := s.Get("EUR/USD")
	require.Len(t, before, 100)

	s.Append("EUR/USD", barAt(100))
	after := s.Get("EUR/USD")
	require.Len(t, after, 100)
	assert.Equal(t, before[1], after[0])
	assert.Equal(t, barAt(100), after[99])
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore(10, nil)
	s.Append("X", barAt(0))
	got := s.Get("X")
	got[0].Close = -1
	assert.Equal(t, 100.0, s.Get("X")[0].Close)
}

func TestStore_Replace(t *testing.T) {
	s := NewStore(3, nil)
	s.Replace("X", []model.Bar{barAt(4), barAt(1), barAt(3), barAt(2)})
	got := s.Get("X")
	require.Len(t, got, 3)
	assert.Equal(t, []model.Bar{barAt(2), barAt(3), barAt(4)}, got)
}

func TestStore_AppendSynthetic(t *testing.T) {
	s := NewStore(10, rand.New(rand.NewPCG(1, 2)))
	price := 50000.0
	for i := 0; i < 5; i++ {
		bar := s.AppendSynthetic("BTCUSDT", price, t0.Add(time.Duration(i)*time.Minute), 0.02)
		assert.True(t, bar.Synthetic)
		assert.Equal(t, price, bar.Close)
		assert.LessOrEqual(t, bar.Low, bar.Open)
		assert.GreaterOrEqual(t, bar.High, bar.Open)
		assert.LessOrEqual(t, bar.High, price*1.02)
		assert.GreaterOrEqual(t, bar.Low, price*0.98)
		assert.GreaterOrEqual(t, bar.Volume, 500_000.0)
		assert.Less(t, bar.Volume, 1_500_000.0)
	}
	assert.True(t, s.Synthetic("BTCUSDT"))

	s.Append("ETHUSDT", barAt(0))
	assert.False(t, s.Synthetic("ETHUSDT"))
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, s.Symbols())
}
