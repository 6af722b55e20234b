package model

import "strings"

// Direction is the sign of a stock adjustment.
type Direction string

const (
	DirectionReduce  Direction = "reduce"
	DirectionRestore Direction = "restore"
)

// SizeStock maps a size label to the units available in that size.
type SizeStock map[string]int

// Total returns the sum of all size counts.
func (s SizeStock) Total() int {
	total := 0
	for _, qty := range s {
		total += qty
	}
	return total
}

// lookup finds the stored label matching size case-insensitively.
func (s SizeStock) lookup(size string) (string, int, bool) {
	if qty, ok := s[size]; ok {
		return size, qty, true
	}
	for label, qty := range s {
		if strings.EqualFold(label, size) {
			return label, qty, true
		}
	}
	return "", 0, false
}

func (s SizeStock) clone() SizeStock {
	if s == nil {
		return nil
	}
	out := make(SizeStock, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// StockLevel is a product's stock: the aggregate count plus the optional
// per-size breakdown. When Sizes is non-empty, Aggregate equals Sizes.Total().
type StockLevel struct {
	Aggregate int       `json:"stock" db:"stock"`
	Sizes     SizeStock `json:"sizeStock,omitempty" db:"size_stock"`
}

// SizeTracked reports whether the product keeps per-size counts.
func (l StockLevel) SizeTracked() bool {
	return len(l.Sizes) > 0
}

// Available returns the units that can be taken for size. Size-tracked
// products answer from the matching size, case-insensitively, and need a
// size; a size they do not stock has none. Other products answer from the
// aggregate.
func (l StockLevel) Available(size string) (int, error) {
	if !l.SizeTracked() {
		return l.Aggregate, nil
	}
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, ErrSizeRequired
	}
	_, qty, _ := l.Sizes.lookup(size)
	return qty, nil
}

// StockAdjustment is one line of a reduce or restore batch.
type StockAdjustment struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

// AdjustmentOutcome describes the stock after an adjustment was applied.
type AdjustmentOutcome struct {
	Level StockLevel
	// Size is the stored label that was adjusted, empty for aggregate-only
	// adjustments.
	Size string
	// SizeRemaining is the count left in Size after the adjustment.
	SizeRemaining *int
}

// Apply computes the stock level that results from adjusting size by
// quantity in the given direction. The receiver is not modified.
func (l StockLevel) Apply(size string, quantity int, dir Direction) (AdjustmentOutcome, error) {
	if quantity <= 0 {
		return AdjustmentOutcome{}, ErrInvalidQuantity
	}
	if dir != DirectionReduce && dir != DirectionRestore {
		return AdjustmentOutcome{}, InvalidArgument(ErrCodeMissingField, "unknown adjustment direction %q", dir)
	}

	if !l.SizeTracked() {
		next := l.Aggregate
		if dir == DirectionReduce {
			if next < quantity {
				return AdjustmentOutcome{}, InsufficientStock(StockShortage{Available: next, Requested: quantity})
			}
			next -= quantity
		} else {
			next += quantity
		}
		return AdjustmentOutcome{Level: StockLevel{Aggregate: next}}, nil
	}

	size = strings.TrimSpace(size)
	if size == "" {
		return AdjustmentOutcome{}, ErrSizeRequired
	}

	label, available, found := l.Sizes.lookup(size)
	if !found {
		label = size
	}

	var remaining int
	if dir == DirectionReduce {
		if available < quantity {
			return AdjustmentOutcome{}, InsufficientStock(StockShortage{Size: size, Available: available, Requested: quantity})
		}
		remaining = available - quantity
	} else {
		remaining = available + quantity
	}

	sizes := l.Sizes.clone()
	sizes[label] = remaining

	return AdjustmentOutcome{
		Level:         StockLevel{Aggregate: sizes.Total(), Sizes: sizes},
		Size:          label,
		SizeRemaining: &remaining,
	}, nil
}

// AdjustmentResult reports one successfully applied adjustment.
type AdjustmentResult struct {
	ProductID     int64     `json:"productId"`
	ProductName   string    `json:"productName,omitempty"`
	Size          string    `json:"size,omitempty"`
	Direction     Direction `json:"direction"`
	Quantity      int       `json:"quantity"`
	SizeRemaining *int      `json:"sizeRemaining,omitempty"`
	TotalStock    int       `json:"totalStock"`
}

// AdjustmentFailure reports one item of a batch that could not be applied.
type AdjustmentFailure struct {
	Index     int    `json:"index"`
	ProductID int64  `json:"productId"`
	Size      string `json:"size,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

// StockBatchRequest is the payload of the reduce-stock and restore-stock
// endpoints.
type StockBatchRequest struct {
	Items []StockAdjustment `json:"items"`
}

// StockBatchResult aggregates the outcome of a reduce or restore batch.
type StockBatchResult struct {
	Direction Direction           `json:"direction"`
	Results   []AdjustmentResult  `json:"results"`
	Errors    []AdjustmentFailure `json:"errors,omitempty"`
	Skipped   []int64             `json:"skipped,omitempty"`
}
