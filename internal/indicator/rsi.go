package indicator

// RSI computes the Relative Strength Index using Wilder's smoothed
// average gain and loss. The first value is defined once period
// bar-to-bar changes have accumulated: their simple means seed the
// averages, after which each updates as (avg*(period-1)+current)/period.
type RSI struct {
	period  int
	prev    float64
	seen    int
	gainSum float64
	lossSum float64
	avgGain float64
	avgLoss float64
}

// NewRSI creates an RSI accumulator. Period must be positive.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Add pushes the next closing price and returns the updated RSI.
// The bool is false until period changes have been seen.
func (r *RSI) Add(close float64) (float64, bool) {
	r.seen++
	if r.seen == 1 {
		r.prev = close
		return 0, false
	}

	change := close - r.prev
	r.prev = close
	var gain, loss float64
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	changes := r.seen - 1
	switch {
	case changes < r.period:
		r.gainSum += gain
		r.lossSum += loss
		return 0, false
	case changes == r.period:
		r.gainSum += gain
		r.lossSum += loss
		r.avgGain = r.gainSum / float64(r.period)
		r.avgLoss = r.lossSum / float64(r.period)
	default:
		r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
		r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
	}

	return r.value(), true
}

func (r *RSI) value() float64 {
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
