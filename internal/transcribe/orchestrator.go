package transcribe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamo2918/voicord/internal/audio"
	"github.com/tamo2918/voicord/internal/observability"
	"github.com/tamo2918/voicord/internal/segment"
)

// Options configures the orchestrator.
type Options struct {
	// TargetChunkMs, MinChunkMs and MaxChunkMs bound the chunks handed to
	// the backend when a file is long enough to need splitting.
	TargetChunkMs int64
	MinChunkMs    int64
	MaxChunkMs    int64

	// LongAudioThresholdSec is the duration above which chunking activates.
	LongAudioThresholdSec float64

	// MaxChunkSizeMB is the backend's per-upload size ceiling. A file under
	// the duration threshold but over this size is still split. 0 disables
	// the size check.
	MaxChunkSizeMB float64

	// MaxConcurrent caps simultaneous backend calls in the multi-file mode.
	MaxConcurrent int
}

// Orchestrator decides whether an audio file needs segmentation, dispatches
// chunks to the backend, and reassembles a single text plus a
// timestamp-corrected segment sequence.
type Orchestrator struct {
	backend   Backend
	segmenter *segment.Segmenter
	opts      Options
	log       zerolog.Logger
}

// NewOrchestrator creates an orchestrator. The backend is an explicitly
// injected collaborator owned by the caller.
func NewOrchestrator(backend Backend, segmenter *segment.Segmenter, opts Options) *Orchestrator {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	return &Orchestrator{
		backend:   backend,
		segmenter: segmenter,
		opts:      opts,
		log:       observability.GetLogger().With().Str("component", "transcribe").Logger(),
	}
}

// Transcribe converts one audio file into a Transcription. Files no longer
// than the long-audio threshold go to the backend in one call; longer files
// are segmented, transcribed chunk by chunk in sequence order, and
// reassembled with every segment shifted by the cumulative measured duration
// of the chunks before it.
func (o *Orchestrator) Transcribe(ctx context.Context, path, language string) (*Transcription, error) {
	info, err := audio.Probe(path)
	if err != nil {
		return nil, err
	}

	long := info.Duration > o.opts.LongAudioThresholdSec
	oversized := o.opts.MaxChunkSizeMB > 0 && info.SizeMB() > o.opts.MaxChunkSizeMB

	if !long && !oversized {
		res, err := o.callBackend(ctx, path, language)
		if err != nil {
			return nil, err
		}
		return &Transcription{Text: res.Text, Segments: res.Segments}, nil
	}

	o.log.Info().
		Str("path", path).
		Str("duration", info.DurationFormatted()).
		Float64("size_mb", info.SizeMB()).
		Msg("Audio exceeds single-call limits, transcribing in chunks")

	var chunks []segment.Chunk
	if long {
		chunks, err = o.segmenter.Segment(ctx, path, o.opts.TargetChunkMs, o.opts.MinChunkMs, o.opts.MaxChunkMs)
	} else {
		chunks, err = o.segmenter.SplitBySize(ctx, path, o.opts.MaxChunkSizeMB, o.opts.MinChunkMs, o.opts.MaxChunkMs)
	}
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", path, err)
	}
	if len(chunks) > 1 || chunks[0].Path != path {
		defer segment.Cleanup(chunks)
	}

	var (
		texts    []string
		segments []Segment
		offset   float64 // cumulative measured duration of prior chunks, seconds
	)

	// Chunk N+1's offset depends on chunk N's measured duration, so this
	// loop is strictly sequential. A chunk failure aborts the whole call:
	// timestamp continuity cannot be salvaged around a hole.
	for _, chunk := range chunks {
		res, err := o.callBackend(ctx, chunk.Path, language)
		if err != nil {
			return nil, fmt.Errorf("transcribe chunk %d: %w", chunk.Index, err)
		}

		if res.Text != "" {
			texts = append(texts, res.Text)
		}
		for _, seg := range res.Segments {
			segments = append(segments, Segment{
				Start: seg.Start + offset,
				End:   seg.End + offset,
				Text:  seg.Text,
			})
		}

		// Advance by the chunk's measured duration, not the nominal target,
		// so drift from silence-based trimming does not corrupt timestamps.
		chunkInfo, err := audio.Probe(chunk.Path)
		if err != nil {
			return nil, fmt.Errorf("measure chunk %d: %w", chunk.Index, err)
		}
		offset += chunkInfo.Duration
	}

	return &Transcription{
		Text:       strings.Join(texts, " "),
		Segments:   segments,
		WasChunked: true,
		ChunkCount: len(chunks),
	}, nil
}

// TranscribeAll transcribes independent whole files with at most
// MaxConcurrent simultaneous backend calls. Results land in the slot of
// their input index regardless of completion order; a failure fills its own
// slot and never aborts sibling work.
func (o *Orchestrator) TranscribeAll(ctx context.Context, paths []string, language string) []FileResult {
	results := make([]FileResult, len(paths))
	sem := make(chan struct{}, o.opts.MaxConcurrent)

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tr, err := o.Transcribe(ctx, path, language)
			if err != nil {
				o.log.Error().Err(err).Str("path", path).Msg("Transcription failed")
			}
			results[i] = FileResult{Path: path, Transcription: tr, Err: err}
		}(i, path)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) callBackend(ctx context.Context, path, language string) (*Result, error) {
	start := time.Now()
	res, err := o.backend.Transcribe(ctx, path, language)
	observability.RecordTranscription(start, err)
	if err == nil {
		o.log.Debug().
			Str("path", path).
			Int("chars", len(res.Text)).
			Dur("elapsed", time.Since(start)).
			Msg("Transcription complete")
	}
	return res, err
}
