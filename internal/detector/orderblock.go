package detector

import (
	"sync"

	"SignalSentinel/internal/model"
)

// OrderBlockCapacity bounds a symbol's order-block inventory.
const OrderBlockCapacity = 10

const (
	orderBlockMinBars     = 10
	orderBlockRangeFactor = 1.5
)

// OrderBlockBook is a bounded newest-first list of order blocks.
type OrderBlockBook struct {
	mu       sync.Mutex
	capacity int
	blocks   []model.OrderBlock
}

// NewOrderBlockBook creates a book. Non-positive capacity uses OrderBlockCapacity.
func NewOrderBlockBook(capacity int) *OrderBlockBook {
	if capacity <= 0 {
		capacity = OrderBlockCapacity
	}
	return &OrderBlockBook{capacity: capacity}
}

// Push prepends ob, dropping the oldest block past capacity.
func (b *OrderBlockBook) Push(ob model.OrderBlock) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = append([]model.OrderBlock{ob}, b.blocks...)
	if len(b.blocks) > b.capacity {
		b.blocks = b.blocks[:b.capacity]
	}
}

// Blocks returns a newest-first copy.
func (b *OrderBlockBook) Blocks() []model.OrderBlock {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.OrderBlock, len(b.blocks))
	copy(out, b.blocks)
	return out
}

// Len returns the number of stored blocks.
func (b *OrderBlockBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocks)
}

// OrderBlocks checks stored blocks for a retest and looks for a new formation
// in the last three bars.
type OrderBlocks struct{}

func (OrderBlocks) Name() string { return "order_blocks" }

func (d OrderBlocks) Detect(in *Input) (Result, error) {
	var res Result
	if err := requireBars(d.Name(), in, orderBlockMinBars); err != nil {
		return res, err
	}
	if in.Blocks == nil {
		return res, nil
	}

	for _, ob := range in.Blocks.Blocks() {
		if ob.Contains(in.Price) {
			res.add(model.TagSwingOrderBlockRespect)
		}
	}

	ob, ok := formation(in.Bars)
	if ok {
		in.Blocks.Push(ob)
		res.add(model.TagInternalOrderBlockRespect)
	}
	return res, nil
}

// formation tests bars n-3, n-2 and n-1. A bullish block forms when n-3 closed
// bearish and n-1 closed above n-2's high on a range more than 1.5x wider.
// The block spans bar n-2.
func formation(bars []model.Bar) (model.OrderBlock, bool) {
	n := len(bars)
	if n < 3 {
		return model.OrderBlock{}, false
	}
	prev, cur, next := bars[n-3], bars[n-2], bars[n-1]
	expansive := next.Range() > cur.Range()*orderBlockRangeFactor

	ob := model.OrderBlock{High: cur.High, Low: cur.Low, Time: cur.Time}
	switch {
	case prev.Bearish() && next.Close > cur.High && expansive:
		ob.Bias = model.BiasBullish
	case prev.Bullish() && next.Close < cur.Low && expansive:
		ob.Bias = model.BiasBearish
	default:
		return model.OrderBlock{}, false
	}
	return ob, true
}
