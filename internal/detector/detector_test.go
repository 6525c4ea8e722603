package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func flat(n int, high, low float64) []model.Bar {
	mid := (high + low) / 2
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{
			Time: t0.Add(time.Duration(i) * time.Minute),
			Open: mid, High: high, Low: low, Close: mid, Volume: 100,
		}
	}
	return bars
}

func bullishFormation() []model.Bar {
	bars := flat(10, 101, 99)
	bars[7].Open, bars[7].Close = 100.5, 99.5
	bars[9] = model.Bar{Time: bars[9].Time, Open: 99.8, High: 104, Low: 99.5, Close: 103.5, Volume: 100}
	return bars
}

func TestOrderBlocks_InsufficientHistory(t *testing.T) {
	_, err := OrderBlocks{}.Detect(&Input{Bars: flat(9, 101, 99), Blocks: NewOrderBlockBook(0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestOrderBlocks_FormationThenRespect(t *testing.T) {
	book := NewOrderBlockBook(0)
	bars := bullishFormation()

	res, err := OrderBlocks{}.Detect(&Input{Bars: bars, Price: 103.5, Blocks: book})
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagInternalOrderBlockRespect}, res.Tags)
	require.Equal(t, 1, book.Len())
	ob := book.Blocks()[0]
	assert.Equal(t, model.BiasBullish, ob.Bias)
	assert.Equal(t, 101.0, ob.High)
	assert.Equal(t, 99.0, ob.Low)
	assert.Equal(t, bars[8].Time, ob.Time)

	res, err = OrderBlocks{}.Detect(&Input{Bars: bars, Price: 100, Blocks: book})
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagSwingOrderBlockRespect, model.TagInternalOrderBlockRespect}, res.Tags)
	assert.Equal(t, 2, book.Len())
}

func TestOrderBlocks_BearishFormation(t *testing.T) {
	bars := flat(10, 101, 99)
	bars[7].Open, bars[7].Close = 99.5, 100.5
	bars[9] = model.Bar{Time: bars[9].Time, Open: 100.2, High: 100.5, Low: 96, Close: 96.5}

	book := NewOrderBlockBook(0)
	res, err := OrderBlocks{}.Detect(&Input{Bars: bars, Price: 96.5, Blocks: book})
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagInternalOrderBlockRespect}, res.Tags)
	assert.Equal(t, model.BiasBearish, book.Blocks()[0].Bias)
}

func TestOrderBlocks_NoFormationWithoutExpansion(t *testing.T) {
	bars := bullishFormation()
	bars[9].High = 102
	bars[9].Low = 99.5
	bars[9].Close = 101.5
	book := NewOrderBlockBook(0)
	res, err := OrderBlocks{}.Detect(&Input{Bars: bars, Price: 101.5, Blocks: book})
	require.NoError(t, err)
	assert.Empty(t, res.Tags)
	assert.Zero(t, book.Len())
}

func TestOrderBlockBook_Capacity(t *testing.T) {
	book := NewOrderBlockBook(0)
	for i := 0; i < 12; i++ {
		book.Push(model.OrderBlock{High: float64(i), Low: float64(i)})
	}
	blocks := book.Blocks()
	require.Len(t, blocks, OrderBlockCapacity)
	assert.Equal(t, 11.0, blocks[0].High)
	assert.Equal(t, 2.0, blocks[9].High)
}

func TestFairValueGaps(t *testing.T) {
	var bars []model.Bar
	for i := 0; i < 5; i++ {
		f := float64(2 * i)
		bars = append(bars, model.Bar{Open: 99 + f, High: 101 + f, Low: 99 + f, Close: 101 + f})
	}
	res, err := FairValueGaps{}.Detect(&Input{Bars: bars})
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagBullishFairValueGap, model.TagBullishFairValueGap, model.TagBullishFairValueGap}, res.Tags)

	res, err = FairValueGaps{}.Detect(&Input{Bars: flat(5, 101, 99)})
	require.NoError(t, err)
	assert.Empty(t, res.Tags)

	_, err = FairValueGaps{}.Detect(&Input{Bars: flat(4, 101, 99)})
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestEqualLevels(t *testing.T) {
	bars := flat(15, 101, 99)
	tests := []struct {
		name  string
		price float64
		want  []model.Tag
	}{
		{"break above equal highs", 101.5, []model.Tag{model.TagEqualHighsBreak}},
		{"break below equal lows", 98, []model.Tag{model.TagEqualLowsBreak}},
		{"inside range", 100, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EqualLevels{}.Detect(&Input{Bars: bars, Price: tt.price})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Tags)
		})
	}
}

func TestEqualLevels_DistinctHighs(t *testing.T) {
	bars := flat(15, 101, 99)
	for i := range bars {
		bars[i].High = 101 + float64(i)
	}
	res, err := EqualLevels{}.Detect(&Input{Bars: bars, Price: 200})
	require.NoError(t, err)
	assert.NotContains(t, res.Tags, model.TagEqualHighsBreak)
}

func TestZones(t *testing.T) {
	bars := flat(20, 110, 100)
	tests := []struct {
		price float64
		want  []model.Tag
	}{
		{108, []model.Tag{model.TagPremiumZoneEntry}},
		{107, []model.Tag{model.TagPremiumZoneEntry}},
		{102, []model.Tag{model.TagDiscountZoneEntry}},
		{105, []model.Tag{model.TagEquilibriumZone}},
		{106.5, nil},
		{103.5, nil},
	}
	for _, tt := range tests {
		res, err := Zones{}.Detect(&Input{Bars: bars, Price: tt.price})
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Tags, "price %v", tt.price)
	}

	res, err := Zones{}.Detect(&Input{Bars: flat(20, 100, 100), Price: 100})
	require.NoError(t, err)
	assert.Empty(t, res.Tags)

	_, err = Zones{}.Detect(&Input{Bars: flat(19, 110, 100)})
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestConfluence(t *testing.T) {
	bars := flat(15, 101, 99)
	res, err := Confluence{}.Detect(&Input{Bars: bars})
	require.NoError(t, err)
	assert.Empty(t, res.Tags)

	bars[14].Volume = 200
	bars[14].High = 104
	res, err = Confluence{}.Detect(&Input{Bars: bars})
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagVolumeConfirmation, model.TagATRVolatilityFilter}, res.Tags)
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		expected bool
	}{
		{"bullish agreement", Input{Direction: model.DirectionBuy, SwingBias: model.BiasBullish, InternalBias: model.BiasBullish}, true},
		{"bearish agreement", Input{Direction: model.DirectionSell, SwingBias: model.BiasBearish, InternalBias: model.BiasBearish}, true},
		{"swing disagrees", Input{Direction: model.DirectionBuy, SwingBias: model.BiasNeutral, InternalBias: model.BiasBullish}, false},
		{"no direction", Input{SwingBias: model.BiasBullish, InternalBias: model.BiasBullish}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Alignment{}.Detect(&tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, len(res.Tags) == 1)
		})
	}
}
