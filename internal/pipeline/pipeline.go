// Package pipeline drives a finished recording session through transcription
// and summarization. It owns nothing long-lived itself; the transcription
// orchestrator and summarizer are injected collaborators.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamo2918/voicord/internal/capture"
	"github.com/tamo2918/voicord/internal/observability"
	"github.com/tamo2918/voicord/internal/summarize"
	"github.com/tamo2918/voicord/internal/transcribe"
)

// SpeakerResult is one speaker's transcription outcome.
type SpeakerResult struct {
	SpeakerID     uint64
	Name          string
	Transcription *transcribe.Transcription
	Err           error
}

// Result collects everything a session produced. Transcripts that succeeded
// are always present, even when summarization failed afterwards.
type Result struct {
	SessionID  string
	Duration   time.Duration
	Speakers   []SpeakerResult
	Summary    string
	SummaryErr error
}

// Transcript renders one speaker's time-aligned transcript, or an empty
// string if transcription failed for that speaker.
func (s *SpeakerResult) Transcript() string {
	if s.Transcription == nil {
		return ""
	}
	return transcribe.FormatSegments(s.Transcription.Segments)
}

// Pipeline processes ended sessions.
type Pipeline struct {
	orch       *transcribe.Orchestrator
	summarizer *summarize.Summarizer
	language   string
	autoDelete bool
	log        zerolog.Logger
}

// New builds a pipeline. language is the default transcription and summary
// language. autoDelete removes the session's recordings after processing.
func New(orch *transcribe.Orchestrator, summarizer *summarize.Summarizer, language string, autoDelete bool) *Pipeline {
	return &Pipeline{
		orch:       orch,
		summarizer: summarizer,
		language:   language,
		autoDelete: autoDelete,
		log:        observability.GetLogger().With().Str("component", "pipeline").Logger(),
	}
}

// Process transcribes every speaker file of an ended session concurrently,
// then summarizes the combined conversation. Per-speaker transcription
// failures are isolated into their result slot and do not abort siblings.
// When summarization fails, the returned Result still carries all
// transcripts and Result.SummaryErr holds the cause.
func (p *Pipeline) Process(ctx context.Context, sess *capture.Session, names map[uint64]string) (*Result, error) {
	// Finalize is idempotent, so processing a session ended via the registry
	// is safe.
	if err := sess.Sink.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize session %s: %w", sess.ID, err)
	}

	log := p.log.With().Str("session_id", sess.ID).Logger()
	files := sess.Sink.Files()
	result := &Result{
		SessionID: sess.ID,
		Duration:  time.Since(sess.StartedAt),
	}

	if len(files) == 0 {
		log.Warn().Msg("Session ended with no recorded audio")
		result.Summary, result.SummaryErr = p.summarizer.SummarizeConversation(ctx, nil, p.language)
		return result, nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	log.Info().Int("speakers", len(files)).Msg("Transcribing session recordings")
	transcriptions := p.orch.TranscribeAll(ctx, paths, p.language)

	var speakers []summarize.SpeakerText
	for i, f := range files {
		name := names[f.SpeakerID]
		if name == "" {
			name = fmt.Sprintf("User %d", f.SpeakerID)
		}
		sr := SpeakerResult{
			SpeakerID:     f.SpeakerID,
			Name:          name,
			Transcription: transcriptions[i].Transcription,
			Err:           transcriptions[i].Err,
		}
		result.Speakers = append(result.Speakers, sr)

		if sr.Err != nil {
			log.Error().Err(sr.Err).Uint64("speaker_id", f.SpeakerID).Msg("Transcription failed for speaker")
			continue
		}
		speakers = append(speakers, summarize.SpeakerText{Name: name, Text: sr.Transcription.Text})
	}

	result.Summary, result.SummaryErr = p.summarizer.SummarizeConversation(ctx, speakers, p.language)
	if result.SummaryErr != nil {
		log.Error().Err(result.SummaryErr).Msg("Summarization failed, returning transcripts only")
	}

	if p.autoDelete {
		p.deleteRecordings(sess, files)
	}
	return result, nil
}

func (p *Pipeline) deleteRecordings(sess *capture.Session, files []capture.SpeakerFile) {
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil {
			p.log.Warn().Err(err).Str("path", f.Path).Msg("Failed to delete recording")
		}
	}
	if err := os.Remove(sess.Dir); err != nil {
		p.log.Warn().Err(err).Str("dir", sess.Dir).Msg("Failed to remove session dir")
	}
}
