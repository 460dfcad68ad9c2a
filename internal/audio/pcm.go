package audio

import "math"

// DecodeSamples converts little-endian 16-bit PCM bytes to samples.
// A trailing odd byte is ignored.
func DecodeSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
	}
	return samples
}

// CalculateRMS calculates the root mean square (RMS) of audio samples.
// Useful for detecting audio levels and silence.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// DBFS converts an RMS level of 16-bit samples to decibels relative to
// full scale. Digital silence maps to -inf.
func DBFS(rms float64) float64 {
	if rms <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/32768.0)
}
