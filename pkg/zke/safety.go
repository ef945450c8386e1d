// SPDX-License-Identifier: MIT

package zke

// CurrentRiseThreshold is how far above the observed minimum the current
// may rise before a discharge is flagged. A healthy constant-current
// discharge holds current flat until cutoff; a rise this large means the
// battery or the wiring is misbehaving.
const CurrentRiseThreshold = 0.05 // A

// SafetyWatcher watches telemetry during a test and flags current anomalies.
// It arms itself while the device reports a running test and rearms from
// scratch when the next test starts.
type SafetyWatcher struct {
	armed  bool
	seeded bool

	minCurrent float64
	minVoltage float64

	lastCurrent float64
	lastVoltage float64
}

// NewSafetyWatcher creates a disarmed watcher.
func NewSafetyWatcher() *SafetyWatcher {
	return &SafetyWatcher{}
}

// Update feeds one telemetry frame into the watcher. Frames outside a
// running test disarm and reset it.
func (w *SafetyWatcher) Update(resp *Response) {
	if resp.Status != StatusTesting {
		w.Reset()
		return
	}
	w.armed = true

	if !w.seeded {
		w.minCurrent = resp.Current
		w.minVoltage = resp.Voltage
		w.seeded = true
	} else {
		if resp.Current < w.minCurrent {
			w.minCurrent = resp.Current
		}
		if resp.Voltage < w.minVoltage {
			w.minVoltage = resp.Voltage
		}
	}

	w.lastCurrent = resp.Current
	w.lastVoltage = resp.Voltage
}

// Check reports whether the last frame was anomalous: the current rose more
// than CurrentRiseThreshold above the minimum seen this test. A disarmed or
// unseeded watcher never flags.
func (w *SafetyWatcher) Check() bool {
	if !w.armed || !w.seeded {
		return false
	}
	return w.lastCurrent > w.minCurrent+CurrentRiseThreshold
}

// Armed reports whether the watcher is tracking a running test.
func (w *SafetyWatcher) Armed() bool {
	return w.armed
}

// Reset disarms the watcher and clears the tracked minima.
func (w *SafetyWatcher) Reset() {
	w.armed = false
	w.seeded = false
	w.minCurrent = 0
	w.minVoltage = 0
	w.lastCurrent = 0
	w.lastVoltage = 0
}
