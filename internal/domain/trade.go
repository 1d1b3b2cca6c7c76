package domain

import "sort"

// Trade es una fila del time & sales del security.
type Trade struct {
	ID       int64
	Period   int
	Tick     int
	Price    float64
	Quantity int
}

// TapeStats agrega el time & sales por tick.
type TapeStats struct {
	Ticks       int
	TotalVolume int
	// TimeFactor es la media por tick de (volumen medio / (volumen total + 1))².
	// Alto cuando pocos trades grandes dominan el tick.
	TimeFactor float64
}

// TickVolume es el volumen agregado de un tick del tape.
type TickVolume struct {
	Tick        int
	Trades      int
	AvgVolume   float64
	TotalVolume int
}

// AggregateTape agrupa los trades por tick, ordenado por tick ascendente.
func AggregateTape(trades []Trade) []TickVolume {
	byTick := make(map[int]*TickVolume)
	var ticks []int
	for _, tr := range trades {
		a, ok := byTick[tr.Tick]
		if !ok {
			a = &TickVolume{Tick: tr.Tick}
			byTick[tr.Tick] = a
			ticks = append(ticks, tr.Tick)
		}
		a.Trades++
		a.TotalVolume += tr.Quantity
	}
	sort.Ints(ticks)

	out := make([]TickVolume, 0, len(ticks))
	for _, t := range ticks {
		a := byTick[t]
		a.AvgVolume = float64(a.TotalVolume) / float64(a.Trades)
		out = append(out, *a)
	}
	return out
}

// SummarizeTape agrupa los trades por tick y calcula el time factor.
func SummarizeTape(trades []Trade) TapeStats {
	agg := AggregateTape(trades)
	if len(agg) == 0 {
		return TapeStats{}
	}

	st := TapeStats{Ticks: len(agg)}
	var sum float64
	for _, a := range agg {
		r := a.AvgVolume / float64(a.TotalVolume+1)
		sum += r * r
		st.TotalVolume += a.TotalVolume
	}
	st.TimeFactor = sum / float64(len(agg))
	return st
}
