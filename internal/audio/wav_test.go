package audio

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tamo2918/voicord/internal/errdefs"
)

var testFormat = Format{SampleRate: 48000, Channels: 2, SampleWidth: 2}

// writeTestWAV writes count milliseconds of audio with the given amplitude
// and returns the file path.
func writeTestWAV(t *testing.T, dir, name string, format Format, ms int64, amplitude int16) string {
	t.Helper()

	path := filepath.Join(dir, name)
	w, err := NewWriter(path, format)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}

	if _, err := w.Write(pcmBlock(format, ms, amplitude)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	return path
}

// pcmBlock builds ms milliseconds of 16-bit PCM, alternating +/- amplitude
// so RMS equals the amplitude.
func pcmBlock(format Format, ms int64, amplitude int16) []byte {
	n := format.BytesForMs(ms)
	block := make([]byte, n)
	sample := amplitude
	for i := int64(0); i+1 < n; i += 2 {
		block[i] = byte(uint16(sample))
		block[i+1] = byte(uint16(sample) >> 8)
		sample = -sample
	}
	return block
}

func TestWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeTestWAV(t, dir, "roundtrip.wav", testFormat, 100, 8000)

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	defer r.Close()

	if r.Format() != testFormat {
		t.Errorf("Expected format %+v, got %+v", testFormat, r.Format())
	}

	want := testFormat.BytesForMs(100)
	if r.DataSize() != want {
		t.Errorf("Expected data size %d, got %d", want, r.DataSize())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	if int64(len(data)) != want {
		t.Errorf("Expected %d bytes of data, got %d", want, len(data))
	}
}

func TestWriter_WriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "closed.wav")

	w, err := NewWriter(path, testFormat)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Close is idempotent
	if err := w.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}

	_, err = w.Write([]byte{0, 0})
	if !errdefs.IsCode(err, errdefs.CodeWriteAfterFinalize) {
		t.Errorf("Expected WRITE_AFTER_FINALIZE, got %v", err)
	}
}

func TestReader_SeekMs(t *testing.T) {
	dir := t.TempDir()
	path := writeTestWAV(t, dir, "seek.wav", testFormat, 1000, 8000)

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	defer r.Close()

	if err := r.SeekMs(500); err != nil {
		t.Fatalf("SeekMs() failed: %v", err)
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}

	want := testFormat.BytesForMs(500)
	if int64(len(rest)) != want {
		t.Errorf("Expected %d bytes after seeking to 500ms, got %d", want, len(rest))
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	path := writeTestWAV(t, dir, "probe.wav", testFormat, 2500, 8000)

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() failed: %v", err)
	}

	if math.Abs(info.Duration-2.5) > 0.01 {
		t.Errorf("Expected duration 2.5s, got %f", info.Duration)
	}
	if info.SampleRate != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", info.SampleRate)
	}
	if info.Channels != 2 {
		t.Errorf("Expected 2 channels, got %d", info.Channels)
	}
	if info.SizeBytes != testFormat.BytesForMs(2500)+wavHeaderSize {
		t.Errorf("Expected size %d, got %d", testFormat.BytesForMs(2500)+wavHeaderSize, info.SizeBytes)
	}
}

func TestProbe_NotFound(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "missing.wav"))
	if !errdefs.IsCode(err, errdefs.CodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got %v", err)
	}
}

func TestProbe_DecodeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("this is not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Probe(path)
	if !errdefs.IsCode(err, errdefs.CodeDecodeFailure) {
		t.Errorf("Expected DECODE_FAILURE, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{5, "5s"},
		{65, "1m 5s"},
		{3723, "1h 2m 3s"},
		{0, "0s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%f) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
