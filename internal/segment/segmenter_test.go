package segment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tamo2918/voicord/internal/audio"
)

// Tests use a low sample rate so long synthetic recordings stay small.
var testFormat = audio.Format{SampleRate: 1000, Channels: 1, SampleWidth: 2}

type span struct {
	ms        int64
	amplitude int16
}

func writeWAV(t *testing.T, name string, spans []span) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	w, err := audio.NewWriter(path, testFormat)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}
	for _, s := range spans {
		n := testFormat.BytesForMs(s.ms)
		block := make([]byte, n)
		sample := s.amplitude
		for i := int64(0); i+1 < n; i += 2 {
			block[i] = byte(uint16(sample))
			block[i+1] = byte(uint16(sample) >> 8)
			sample = -sample
		}
		if _, err := w.Write(block); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	return path
}

func newTestSegmenter() *Segmenter {
	return NewSegmenter(-40, 500)
}

func checkCoverage(t *testing.T, chunks []Chunk, totalMs int64) {
	t.Helper()

	if len(chunks) == 0 {
		t.Fatal("Expected at least one chunk")
	}
	if chunks[0].StartMs != 0 {
		t.Errorf("Expected first chunk to start at 0, got %d", chunks[0].StartMs)
	}
	if chunks[len(chunks)-1].EndMs != totalMs {
		t.Errorf("Expected last chunk to end at %d, got %d", totalMs, chunks[len(chunks)-1].EndMs)
	}
	for i := 0; i < len(chunks)-1; i++ {
		if chunks[i].EndMs != chunks[i+1].StartMs {
			t.Errorf("Gap or overlap between chunk %d (end %d) and chunk %d (start %d)",
				i, chunks[i].EndMs, i+1, chunks[i+1].StartMs)
		}
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("Expected chunk index %d, got %d", i, c.Index)
		}
	}
}

func TestSegment_ShortAudioUnsplit(t *testing.T) {
	path := writeWAV(t, "short.wav", []span{{60000, 8000}}) // 1 minute

	chunks, err := newTestSegmenter().Segment(context.Background(), path, 300000, 30000, 600000)
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].StartMs != 0 || chunks[0].EndMs != 60000 {
		t.Errorf("Expected chunk spanning [0, 60000], got [%d, %d]", chunks[0].StartMs, chunks[0].EndMs)
	}
	if chunks[0].Path != path {
		t.Errorf("Expected unsplit chunk to reference the source file, got %s", chunks[0].Path)
	}
}

func TestSegment_TwelveMinuteSpeech(t *testing.T) {
	// 12 minutes of silence-free speech with a 5 minute target splits into
	// exactly 5min/5min/2min.
	path := writeWAV(t, "twelve.wav", []span{{720000, 8000}})

	chunks, err := newTestSegmenter().Segment(context.Background(), path, 300000, 30000, 600000)
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}
	defer Cleanup(chunks)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	wantLengths := []int64{300000, 300000, 120000}
	for i, want := range wantLengths {
		if got := chunks[i].DurationMs(); got != want {
			t.Errorf("Chunk %d: expected %dms, got %dms", i, want, got)
		}
	}
	checkCoverage(t, chunks, 720000)
}

func TestSegment_NoSilenceFixedCuts(t *testing.T) {
	// 7.5 minutes, 2 minute target, no silence: ceil(450/120) = 4 chunks
	path := writeWAV(t, "nosilence.wav", []span{{450000, 8000}})

	chunks, err := newTestSegmenter().Segment(context.Background(), path, 120000, 30000, 600000)
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}
	defer Cleanup(chunks)

	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.DurationMs() > 120000 {
			t.Errorf("Chunk %d exceeds target: %dms", i, c.DurationMs())
		}
		if i < len(chunks)-1 && c.DurationMs() < 30000 {
			t.Errorf("Non-final chunk %d under minimum: %dms", i, c.DurationMs())
		}
	}
	checkCoverage(t, chunks, 450000)

	// Extracted chunk files are themselves valid audio of the right length
	info, err := audio.Probe(chunks[0].Path)
	if err != nil {
		t.Fatalf("Probe(chunk) failed: %v", err)
	}
	if info.Duration != 120 {
		t.Errorf("Expected chunk file duration 120s, got %f", info.Duration)
	}
}

func TestSegment_CutsAtSilencePoint(t *testing.T) {
	// Speech with a 10s silence gap centred at 175s. With a 3 minute target
	// the first cut lands at the gap midpoint instead of the 180s ideal.
	path := writeWAV(t, "gap.wav", []span{
		{170000, 8000},
		{10000, 0},
		{165000, 8000},
	})

	chunks, err := newTestSegmenter().Segment(context.Background(), path, 180000, 30000, 600000)
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}
	defer Cleanup(chunks)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if d := chunks[0].EndMs - 175000; d < -100 || d > 100 {
		t.Errorf("Expected first cut near the 175000ms gap midpoint, got %d", chunks[0].EndMs)
	}
	checkCoverage(t, chunks, 345000)
}

func TestSegment_FarSilenceIgnored(t *testing.T) {
	// The only gap midpoint sits at ~30s, far outside 30% of a 3 minute
	// target around the 180s ideal end, so cuts stay fixed-duration.
	path := writeWAV(t, "fargap.wav", []span{
		{25000, 8000},
		{10000, 0},
		{325000, 8000},
	})

	chunks, err := newTestSegmenter().Segment(context.Background(), path, 180000, 30000, 600000)
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}
	defer Cleanup(chunks)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].EndMs != 180000 {
		t.Errorf("Expected hard cut at 180000, got %d", chunks[0].EndMs)
	}
}

func TestSegment_SilenceDetectionDisabled(t *testing.T) {
	path := writeWAV(t, "disabled.wav", []span{
		{170000, 8000},
		{10000, 0},
		{180000, 8000},
	})

	seg := newTestSegmenter()
	seg.UseSilence = false
	chunks, err := seg.Segment(context.Background(), path, 180000, 30000, 600000)
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}
	defer Cleanup(chunks)

	if chunks[0].EndMs != 180000 {
		t.Errorf("Expected fixed cut at 180000 with silence disabled, got %d", chunks[0].EndMs)
	}
}

func TestChooseEnd_TieKeepsEarlier(t *testing.T) {
	// Candidates equidistant from the ideal end at 1000: 900 and 1100.
	// The earlier one must win.
	end, cut := chooseEnd(0, 10000, 1000, []int64{900, 1100})
	if cut != cutSilence {
		t.Fatalf("Expected a silence cut, got %s", cut)
	}
	if end != 900 {
		t.Errorf("Expected earlier candidate 900 to win the tie, got %d", end)
	}
}

func TestChooseEnd_NearestWins(t *testing.T) {
	end, _ := chooseEnd(0, 10000, 1000, []int64{700, 1050, 1290})
	if end != 1050 {
		t.Errorf("Expected nearest candidate 1050, got %d", end)
	}
}

func TestChooseEnd_FinalChunk(t *testing.T) {
	// Ideal end at or past the total duration ends exactly at the total,
	// ignoring candidates.
	end, cut := chooseEnd(9500, 10000, 1000, []int64{9700})
	if end != 10000 || cut != cutFixed {
		t.Errorf("Expected final chunk ending at 10000 (fixed), got %d (%s)", end, cut)
	}
}

func TestSegment_MinimumFloor(t *testing.T) {
	// A candidate just past the current position would produce a 10s chunk;
	// the 30s floor overrides it for non-final chunks.
	path := writeWAV(t, "floor.wav", []span{
		{8000, 8000},
		{4000, 0},
		{78000, 8000},
	})

	// target 12s: ideal first end at 12000, gap midpoint at 10000 qualifies
	// (distance 2000 < 3600) but yields a 10s chunk, under the 30s floor.
	chunks, err := newTestSegmenter().Segment(context.Background(), path, 12000, 30000, 600000)
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}
	defer Cleanup(chunks)

	for i, c := range chunks {
		if i < len(chunks)-1 && c.DurationMs() < 30000 {
			t.Errorf("Non-final chunk %d under 30s floor: %dms", i, c.DurationMs())
		}
	}
	checkCoverage(t, chunks, 90000)
}

func TestSplitBySize_SmallFileUnsplit(t *testing.T) {
	path := writeWAV(t, "small.wav", []span{{10000, 8000}})

	chunks, err := newTestSegmenter().SplitBySize(context.Background(), path, 25, 30000, 600000)
	if err != nil {
		t.Fatalf("SplitBySize() failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Path != path {
		t.Errorf("Expected the file back unsplit, got %v", chunks)
	}
}

func TestSplitBySize_ChunkCount(t *testing.T) {
	// Size ratio 2.44 (like 61MB against a 25MB ceiling) gives
	// floor(2.44)+1 = 3 chunks. 610s at 2000 bytes/s is ~1.22MB; the
	// ceiling of 0.5MB reproduces the ratio.
	path := writeWAV(t, "large.wav", []span{{610000, 8000}})

	chunks, err := newTestSegmenter().SplitBySize(context.Background(), path, 0.5, 30000, 600000)
	if err != nil {
		t.Fatalf("SplitBySize() failed: %v", err)
	}
	defer Cleanup(chunks)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	checkCoverage(t, chunks, 610000)
}

func TestSegment_Cancelled(t *testing.T) {
	path := writeWAV(t, "cancel.wav", []span{{450000, 8000}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestSegmenter().Segment(ctx, path, 120000, 30000, 600000); err == nil {
		t.Error("Expected error from cancelled context")
	}
}
