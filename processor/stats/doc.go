// Package stats implements running aggregates over a sliding window of the
// most recent N values.
//
// Every aggregate owns its window; nothing here is safe for concurrent use.
// Wire components call Add from inside a propagation, which the engine
// serializes, so no locking is needed.
//
//	avg := stats.NewAverage(3)
//	avg.Add(1) // 1
//	avg.Add(2) // 1.5
//	avg.Add(3) // 2
//	avg.Add(4) // 3, the window now holds 2, 3, 4
package stats
