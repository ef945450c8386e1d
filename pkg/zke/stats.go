// SPDX-License-Identifier: MIT

package zke

import (
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates across a read loop.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalReads     uint64
	ValidFrames    uint64
	NoData         uint64
	ChecksumErrors uint64
	FramingErrors  uint64
	FieldErrors    uint64
	Anomalies      uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records the outcome of one read attempt. Anomaly marks a frame
// that decoded fine but was flagged by the safety watcher.
func (s *Statistics) Update(resp *Response, readErr error, anomaly bool) {
	s.TotalReads++
	s.LastUpdateTime = time.Now()

	if readErr != nil {
		if readErr == ErrNoData {
			s.NoData++
			return
		}
		if decErr, ok := readErr.(*DecodeError); ok {
			switch decErr.Reason {
			case ReasonChecksum:
				s.ChecksumErrors++
			case ReasonLength, ReasonBeginMarker, ReasonEndMarker:
				s.FramingErrors++
			default:
				s.FieldErrors++
			}
			return
		}
		s.FramingErrors++
		return
	}

	if resp != nil {
		s.ValidFrames++
		if anomaly {
			s.Anomalies++
		}
	}
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.ValidFrames) / elapsed
		errorCount := s.ChecksumErrors + s.FramingErrors + s.FieldErrors
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent, framingPercent, fieldPercent float64
	if s.TotalReads > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalReads)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalReads)
		framingPercent = float64(s.FramingErrors) * 100.0 / float64(s.TotalReads)
		fieldPercent = float64(s.FieldErrors) * 100.0 / float64(s.TotalReads)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Reads:     %8d\n", s.TotalReads)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.NoData > 0 {
		result += fmt.Sprintf("Empty Reads:     %8d\n", s.NoData)
	}
	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.FramingErrors > 0 {
		result += fmt.Sprintf("Framing Errors:  %8d (%.1f%%)\n", s.FramingErrors, framingPercent)
	}
	if s.FieldErrors > 0 {
		result += fmt.Sprintf("Field Errors:    %8d (%.1f%%)\n", s.FieldErrors, fieldPercent)
	}
	if s.Anomalies > 0 {
		result += fmt.Sprintf("Anomalies:       %8d\n", s.Anomalies)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalReads = 0
	s.ValidFrames = 0
	s.NoData = 0
	s.ChecksumErrors = 0
	s.FramingErrors = 0
	s.FieldErrors = 0
	s.Anomalies = 0
	s.FrameRate = 0
	s.ErrorRate = 0
}
