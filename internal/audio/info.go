package audio

import (
	"fmt"
	"os"
)

// Info describes an audio file. It is derived metadata: Probe recomputes it
// from the file on every call, so it is never stale across mutations of the
// underlying resource.
type Info struct {
	Path        string
	Duration    float64 // seconds
	SampleRate  int     // Hz
	Channels    int
	SampleWidth int   // bytes per sample
	SizeBytes   int64 // whole file, header included
}

// SizeMB returns the file size in megabytes.
func (i Info) SizeMB() float64 {
	return float64(i.SizeBytes) / (1024 * 1024)
}

// DurationFormatted renders the duration as "1h 2m 3s", "2m 3s" or "3s".
func (i Info) DurationFormatted() string {
	return FormatDuration(i.Duration)
}

// Probe reads format and size metadata from a WAV file.
func Probe(path string) (Info, error) {
	r, err := OpenReader(path)
	if err != nil {
		return Info{}, err
	}
	defer r.Close()

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat audio file: %w", err)
	}

	f := r.Format()
	return Info{
		Path:        path,
		Duration:    f.Duration(r.DataSize()),
		SampleRate:  f.SampleRate,
		Channels:    f.Channels,
		SampleWidth: f.SampleWidth,
		SizeBytes:   st.Size(),
	}, nil
}

// FormatDuration renders seconds as "1h 2m 3s", "2m 3s" or "3s".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
