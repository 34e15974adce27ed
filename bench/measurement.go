// Copyright 2018 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"sync"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram records operation latencies in microseconds. It is safe for concurrent use.
type Histogram struct {
	mu        sync.Mutex
	startTime time.Time
	hist      *hdrhistogram.Histogram
}

// Summary is a snapshot of a Histogram. Latencies are in microseconds.
type Summary struct {
	Elapsed   time.Duration
	Count     int64
	QPS       float64
	Avg       int64
	Min       int64
	Max       int64
	Per99th   int64
	Per999th  int64
	Per9999th int64
}

// NewHistogram creates an empty histogram whose clock starts now.
func NewHistogram() *Histogram {
	return &Histogram{
		startTime: time.Now(),
		hist:      hdrhistogram.New(1, 24*60*60*1000*1000, 3),
	}
}

// Measure records one operation.
func (h *Histogram) Measure(latency time.Duration) {
	us := latency.Microseconds()
	if us < 1 {
		us = 1
	}
	h.mu.Lock()
	_ = h.hist.RecordValue(us)
	h.mu.Unlock()
}

// Summary returns the statistics recorded so far.
func (h *Histogram) Summary() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	elapsed := time.Since(h.startTime)
	count := h.hist.TotalCount()
	res := Summary{
		Elapsed:   elapsed,
		Count:     count,
		Avg:       int64(h.hist.Mean()),
		Min:       h.hist.Min(),
		Max:       h.hist.Max(),
		Per99th:   h.hist.ValueAtPercentile(99),
		Per999th:  h.hist.ValueAtPercentile(99.9),
		Per9999th: h.hist.ValueAtPercentile(99.99),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		res.QPS = float64(count) / secs
	}
	return res
}
