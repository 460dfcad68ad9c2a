// Package segment splits long audio files into bounded-duration chunks,
// preferring natural break points found in silence gaps and falling back to
// fixed-duration cuts when none qualify.
package segment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tamo2918/voicord/internal/audio"
	"github.com/tamo2918/voicord/internal/observability"
)

// Chunk is a bounded-duration contiguous slice of a larger audio file.
// Ordering by Index equals chronological order; chunk boundaries tile the
// source exactly (chunk[i].EndMs == chunk[i+1].StartMs).
type Chunk struct {
	Index   int
	StartMs int64 // offset into the source audio
	EndMs   int64
	Path    string
}

// DurationMs returns the chunk length in milliseconds.
func (c Chunk) DurationMs() int64 {
	return c.EndMs - c.StartMs
}

// Segmenter computes candidate break points from silence gaps and emits an
// ordered sequence of chunks under duration constraints.
type Segmenter struct {
	// SilenceThresholdDB is the dBFS level below which audio counts as silent.
	SilenceThresholdDB float64

	// MinSilenceMs is the minimum silence run considered a break point.
	MinSilenceMs int64

	// UseSilence disables silence detection entirely when false, producing
	// pure fixed-duration cuts.
	UseSilence bool

	// ChunkDir receives extracted chunk files. Empty means a fresh temp
	// directory per Segment call.
	ChunkDir string

	log zerolog.Logger
}

// NewSegmenter creates a segmenter with silence-aware cutting enabled.
func NewSegmenter(thresholdDB float64, minSilenceMs int64) *Segmenter {
	return &Segmenter{
		SilenceThresholdDB: thresholdDB,
		MinSilenceMs:       minSilenceMs,
		UseSilence:         true,
		log:                observability.GetLogger().With().Str("component", "segment").Logger(),
	}
}

// Segment splits the audio at path into chunks of roughly targetMs
// milliseconds. Every chunk except the last is at least minMs long; maxMs is
// a hard ceiling on any single chunk. Audio no longer than targetMs is
// returned as a single chunk referencing the source file itself.
func (s *Segmenter) Segment(ctx context.Context, path string, targetMs, minMs, maxMs int64) ([]Chunk, error) {
	r, err := audio.OpenReader(path)
	if err != nil {
		return nil, err
	}
	format := r.Format()
	totalMs := r.DataSize() * 1000 / int64(format.ByteRate())
	r.Close()

	if totalMs <= targetMs {
		return []Chunk{{Index: 0, StartMs: 0, EndMs: totalMs, Path: path}}, nil
	}

	candidates := s.breakCandidates(path)
	s.log.Info().
		Str("path", path).
		Int64("total_ms", totalMs).
		Int64("target_ms", targetMs).
		Int("break_points", len(candidates)).
		Msg("Splitting audio")

	dir := s.ChunkDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "voicord-chunks-*")
		if err != nil {
			return nil, fmt.Errorf("create chunk dir: %w", err)
		}
	}

	var chunks []Chunk
	currentPos := int64(0)

	for currentPos < totalMs {
		if err := ctx.Err(); err != nil {
			Cleanup(chunks)
			return nil, err
		}

		chunkEnd, cut := chooseEnd(currentPos, totalMs, targetMs, candidates)
		if cut == cutSilence {
			candidates = remove(candidates, chunkEnd)
		}

		// Floor: never emit a chunk under minMs unless it is the final one.
		if chunkEnd-currentPos < minMs && chunkEnd < totalMs {
			chunkEnd = currentPos + minMs
			if chunkEnd > totalMs {
				chunkEnd = totalMs
			}
			cut = cutFixed
		}
		// Ceiling on any single chunk.
		if chunkEnd-currentPos > maxMs {
			chunkEnd = currentPos + maxMs
			cut = cutFixed
		}

		chunkPath := filepath.Join(dir, fmt.Sprintf("chunk_%03d.wav", len(chunks)))
		if err := extract(path, chunkPath, currentPos, chunkEnd); err != nil {
			Cleanup(chunks)
			return nil, err
		}

		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			StartMs: currentPos,
			EndMs:   chunkEnd,
			Path:    chunkPath,
		})
		observability.RecordChunk(string(cut))
		s.log.Debug().
			Int("chunk", len(chunks)-1).
			Float64("start_s", float64(currentPos)/1000).
			Float64("end_s", float64(chunkEnd)/1000).
			Str("cut", string(cut)).
			Msg("Created chunk")

		currentPos = chunkEnd
	}

	return chunks, nil
}

// SplitBySize splits so that each chunk stays under maxSizeMB, by picking a
// target duration from the file size (even split by time, assuming roughly
// constant bitrate) and delegating to Segment with silence awareness.
func (s *Segmenter) SplitBySize(ctx context.Context, path string, maxSizeMB float64, minMs, maxMs int64) ([]Chunk, error) {
	info, err := audio.Probe(path)
	if err != nil {
		return nil, err
	}

	if info.SizeMB() <= maxSizeMB {
		totalMs := int64(info.Duration * 1000)
		return []Chunk{{Index: 0, StartMs: 0, EndMs: totalMs, Path: path}}, nil
	}

	numChunks := int64(info.SizeMB()/maxSizeMB) + 1
	targetMs := int64(info.Duration*1000) / numChunks
	s.log.Info().
		Str("path", path).
		Float64("size_mb", info.SizeMB()).
		Int64("num_chunks", numChunks).
		Int64("target_ms", targetMs).
		Msg("Splitting audio by size")

	return s.Segment(ctx, path, targetMs, minMs, maxMs)
}

// breakCandidates runs silence detection. Detection failure is expected
// input, not an error: the segmenter degrades to fixed-duration cuts.
func (s *Segmenter) breakCandidates(path string) []int64 {
	if !s.UseSilence {
		return nil
	}
	intervals, err := audio.DetectNonSilent(path, s.SilenceThresholdDB, s.MinSilenceMs)
	if err != nil {
		s.log.Warn().Err(err).Msg("Silence detection failed, using fixed splits")
		return nil
	}
	return audio.BreakPoints(intervals)
}

type cutKind string

const (
	cutSilence cutKind = "silence"
	cutFixed   cutKind = "fixed"
)

// chooseEnd picks the end of the chunk starting at currentPos. Among unused
// candidates strictly inside (currentPos, totalMs), the one nearest the ideal
// end wins if it is within 30% of the target duration; strictly smaller
// distance wins, so equal distances keep the earlier candidate. Otherwise the
// ideal end itself is a hard cut.
func chooseEnd(currentPos, totalMs, targetMs int64, candidates []int64) (int64, cutKind) {
	idealEnd := currentPos + targetMs
	if idealEnd >= totalMs {
		return totalMs, cutFixed
	}

	var (
		best        int64 = -1
		minDistance int64 = -1
	)
	for _, p := range candidates {
		if p <= currentPos || p >= totalMs {
			continue
		}
		distance := p - idealEnd
		if distance < 0 {
			distance = -distance
		}
		if distance < targetMs*3/10 && (minDistance < 0 || distance < minDistance) {
			minDistance = distance
			best = p
		}
	}

	if best >= 0 {
		return best, cutSilence
	}
	return idealEnd, cutFixed
}

func remove(candidates []int64, value int64) []int64 {
	for i, p := range candidates {
		if p == value {
			return append(candidates[:i], candidates[i+1:]...)
		}
	}
	return candidates
}

// extract copies the [startMs, endMs) slice of src into a new WAV file,
// streaming the byte range without loading either file into memory.
func extract(src, dst string, startMs, endMs int64) error {
	r, err := audio.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	format := r.Format()
	if err := r.SeekMs(startMs); err != nil {
		return err
	}

	w, err := audio.NewWriter(dst, format)
	if err != nil {
		return err
	}

	n := format.BytesForMs(endMs) - format.BytesForMs(startMs)
	if _, err := io.CopyN(w, r, n); err != nil && err != io.EOF {
		w.Close()
		os.Remove(dst)
		return fmt.Errorf("extract chunk %s: %w", dst, err)
	}
	return w.Close()
}

// Cleanup removes chunk files, best effort. Chunks whose Path points at the
// original source (the unsplit single-chunk case) must not be passed here.
func Cleanup(chunks []Chunk) {
	logger := observability.GetLogger()
	for _, c := range chunks {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", c.Path).Msg("Failed to delete chunk file")
		}
	}
}
