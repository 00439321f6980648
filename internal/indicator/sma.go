package indicator

// SMA is a rolling simple moving average over a fixed window.
type SMA struct {
	period int
	buf    []float64
	idx    int
	count  int
	sum    float64
}

// NewSMA creates an SMA accumulator. Period must be positive.
func NewSMA(period int) *SMA {
	return &SMA{period: period, buf: make([]float64, period)}
}

// Add pushes the next value and returns the updated average.
// The bool is false until period values have been seen.
func (s *SMA) Add(v float64) (float64, bool) {
	if s.count < s.period {
		s.buf[s.idx] = v
		s.sum += v
		s.count++
	} else {
		s.sum += v - s.buf[s.idx]
		s.buf[s.idx] = v
	}
	s.idx++
	if s.idx == s.period {
		s.idx = 0
	}
	if s.count < s.period {
		return 0, false
	}
	return s.sum / float64(s.period), true
}

// EMA is an exponential moving average with smoothing factor 2/(period+1),
// seeded with the simple average of the first period values.
type EMA struct {
	period int
	k      float64
	sum    float64
	count  int
	value  float64
}

// NewEMA creates an EMA accumulator. Period must be positive.
func NewEMA(period int) *EMA {
	return &EMA{period: period, k: 2.0 / float64(period+1)}
}

// Add pushes the next value and returns the updated average.
// The bool is false until the seed window is complete.
func (e *EMA) Add(v float64) (float64, bool) {
	e.count++
	if e.count < e.period {
		e.sum += v
		return 0, false
	}
	if e.count == e.period {
		e.sum += v
		e.value = e.sum / float64(e.period)
		return e.value, true
	}
	e.value = v*e.k + e.value*(1-e.k)
	return e.value, true
}
