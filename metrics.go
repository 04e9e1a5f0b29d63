package aml

import "time"

// pSquareQuantile implements the P-Square algorithm for streaming quantile
// estimation in O(1) time and space per observation, adapted verbatim (sans
// export surface) from the teacher package's psquare.go. Not safe for
// concurrent use; Metrics only ever updates it from the loop goroutine.
//
// Reference: Jain, R. and Chlamtac, I. (1985). "The P^2 Algorithm for
// Dynamic Calculation of Quantiles and Histograms Without Storing
// Observations". Communications of the ACM, 28(10), pp. 1076-1085.
type pSquareQuantile struct {
	p          float64
	q          [5]float64
	n          [5]int
	np         [5]float64
	dn         [5]float64
	count      int
	initBuffer [5]float64
}

func newPSquareQuantile(p float64) *pSquareQuantile {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &pSquareQuantile{p: p, dn: [5]float64{0, p / 2, p, (1 + p) / 2, 1}}
}

func (ps *pSquareQuantile) Update(x float64) {
	ps.count++
	if ps.count <= 5 {
		ps.initBuffer[ps.count-1] = x
		if ps.count == 5 {
			ps.initialize()
		}
		return
	}

	var k int
	if x < ps.q[0] {
		ps.q[0] = x
		k = 0
	} else if x >= ps.q[4] {
		ps.q[4] = x
		k = 3
	} else {
		for k = 0; k < 4; k++ {
			if ps.q[k] <= x && x < ps.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		ps.n[i]++
	}
	for i := 0; i < 5; i++ {
		ps.np[i] += ps.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := ps.np[i] - float64(ps.n[i])
		if (d >= 1 && ps.n[i+1]-ps.n[i] > 1) || (d <= -1 && ps.n[i-1]-ps.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			qPrime := ps.parabolic(i, sign)
			if ps.q[i-1] < qPrime && qPrime < ps.q[i+1] {
				ps.q[i] = qPrime
			} else {
				ps.q[i] = ps.linear(i, sign)
			}
			ps.n[i] += sign
		}
	}
}

func (ps *pSquareQuantile) initialize() {
	for i := 1; i < 5; i++ {
		key := ps.initBuffer[i]
		j := i - 1
		for j >= 0 && ps.initBuffer[j] > key {
			ps.initBuffer[j+1] = ps.initBuffer[j]
			j--
		}
		ps.initBuffer[j+1] = key
	}
	for i := 0; i < 5; i++ {
		ps.q[i] = ps.initBuffer[i]
		ps.n[i] = i
	}
	ps.np = [5]float64{0, 2 * ps.p, 4 * ps.p, 2 + 2*ps.p, 4}
}

func (ps *pSquareQuantile) parabolic(i, d int) float64 {
	df := float64(d)
	ni := float64(ps.n[i])
	niPrev := float64(ps.n[i-1])
	niNext := float64(ps.n[i+1])
	term1 := df / (niNext - niPrev)
	term2 := (ni - niPrev + df) * (ps.q[i+1] - ps.q[i]) / (niNext - ni)
	term3 := (niNext - ni - df) * (ps.q[i] - ps.q[i-1]) / (ni - niPrev)
	return ps.q[i] + term1*(term2+term3)
}

func (ps *pSquareQuantile) linear(i, d int) float64 {
	if d == 1 {
		return ps.q[i] + (ps.q[i+1]-ps.q[i])/float64(ps.n[i+1]-ps.n[i])
	}
	return ps.q[i] - (ps.q[i]-ps.q[i-1])/float64(ps.n[i]-ps.n[i-1])
}

func (ps *pSquareQuantile) Quantile() float64 {
	if ps.count == 0 {
		return 0
	}
	if ps.count < 5 {
		sorted := make([]float64, ps.count)
		copy(sorted, ps.initBuffer[:ps.count])
		for i := 1; i < ps.count; i++ {
			key := sorted[i]
			j := i - 1
			for j >= 0 && sorted[j] > key {
				sorted[j+1] = sorted[j]
				j--
			}
			sorted[j+1] = key
		}
		index := int(float64(ps.count-1) * ps.p)
		if index >= ps.count {
			index = ps.count - 1
		}
		return sorted[index]
	}
	return ps.q[2]
}

// LatencySnapshot reports p50/p99 estimates and a sample count for one
// tracked latency distribution.
type LatencySnapshot struct {
	P50   time.Duration
	P99   time.Duration
	Count int
}

// Metrics tracks poll and dispatch latency percentiles for a Loop, enabled
// by [WithMetrics]. Grounded on the teacher's psquare-backed metrics
// (metrics_psquare_bench_test.go exercises the same estimator this package
// reuses); exposed here as two independent distributions since an aml-style
// loop's poll (blocking syscall) and dispatch (callback execution) latencies
// are meaningfully different signals.
type Metrics struct {
	pollP50, pollP99         *pSquareQuantile
	dispatchP50, dispatchP99 *pSquareQuantile
	pollCount, dispatchCount int
}

func newMetrics() *Metrics {
	return &Metrics{
		pollP50:     newPSquareQuantile(0.50),
		pollP99:     newPSquareQuantile(0.99),
		dispatchP50: newPSquareQuantile(0.50),
		dispatchP99: newPSquareQuantile(0.99),
	}
}

func (m *Metrics) recordPoll(d time.Duration) {
	m.pollCount++
	v := float64(d)
	m.pollP50.Update(v)
	m.pollP99.Update(v)
}

func (m *Metrics) recordDispatch(d time.Duration) {
	m.dispatchCount++
	v := float64(d)
	m.dispatchP50.Update(v)
	m.dispatchP99.Update(v)
}

// PollLatency reports the poll-step latency distribution.
func (m *Metrics) PollLatency() LatencySnapshot {
	return LatencySnapshot{
		P50:   time.Duration(m.pollP50.Quantile()),
		P99:   time.Duration(m.pollP99.Quantile()),
		Count: m.pollCount,
	}
}

// DispatchLatency reports the dispatch-step latency distribution.
func (m *Metrics) DispatchLatency() LatencySnapshot {
	return LatencySnapshot{
		P50:   time.Duration(m.dispatchP50.Quantile()),
		P99:   time.Duration(m.dispatchP99.Quantile()),
		Count: m.dispatchCount,
	}
}
