package audio

import (
	"errors"
	"fmt"
	"io"
)

// silenceWindowMs is the analysis window for silence detection. Small enough
// that a 500ms minimum silence run spans many windows, large enough to keep
// the scan cheap.
const silenceWindowMs = 10

// Interval is a non-silent span of audio in milliseconds.
type Interval struct {
	StartMs int64
	EndMs   int64
}

// DetectNonSilent scans a WAV file and returns its non-silent intervals.
// A window is silent when its level is below thresholdDB (dBFS); a silent
// run shorter than minSilenceMs does not split an interval. The file is
// streamed window by window, so memory use is independent of duration.
func DetectNonSilent(path string, thresholdDB float64, minSilenceMs int64) ([]Interval, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	format := r.Format()
	if format.SampleWidth != 2 {
		return nil, fmt.Errorf("silence detection requires 16-bit PCM, got %d-bit", format.SampleWidth*8)
	}

	windowBytes := format.BytesForMs(silenceWindowMs)
	if windowBytes == 0 {
		return nil, fmt.Errorf("sample rate %d too low for %dms windows", format.SampleRate, silenceWindowMs)
	}
	buf := make([]byte, windowBytes)

	var (
		intervals    []Interval
		inSpeech     bool
		speechStart  int64 // ms
		silenceStart int64 // ms, start of the current silent run inside speech
		silenceRun   int64 // ms
		pos          int64 // ms
	)

	for {
		n, err := io.ReadFull(r, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read audio window: %w", err)
		}
		if n == 0 {
			break
		}

		windowMs := int64(n) * 1000 / int64(format.ByteRate())
		if windowMs == 0 {
			windowMs = 1
		}
		loud := DBFS(CalculateRMS(DecodeSamples(buf[:n]))) >= thresholdDB

		switch {
		case loud && !inSpeech:
			inSpeech = true
			speechStart = pos
			silenceRun = 0
		case loud && inSpeech:
			silenceRun = 0
		case !loud && inSpeech:
			if silenceRun == 0 {
				silenceStart = pos
			}
			silenceRun += windowMs
			if silenceRun >= minSilenceMs {
				// The silent run is long enough to end the interval where it began.
				intervals = append(intervals, Interval{StartMs: speechStart, EndMs: silenceStart})
				inSpeech = false
				silenceRun = 0
			}
		}

		pos += windowMs
		if errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
	}

	if inSpeech {
		end := pos
		if silenceRun > 0 {
			end = silenceStart
		}
		intervals = append(intervals, Interval{StartMs: speechStart, EndMs: end})
	}

	return intervals, nil
}

// BreakPoints converts non-silent intervals into candidate cut positions:
// the midpoint of each gap between consecutive intervals, in ascending order.
func BreakPoints(intervals []Interval) []int64 {
	if len(intervals) < 2 {
		return nil
	}
	points := make([]int64, 0, len(intervals)-1)
	for i := 0; i < len(intervals)-1; i++ {
		endOfSpeech := intervals[i].EndMs
		startOfNext := intervals[i+1].StartMs
		points = append(points, (endOfSpeech+startOfNext)/2)
	}
	return points
}
