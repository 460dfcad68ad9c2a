// Package capture persists incoming per-speaker audio packets to disk as
// they arrive. Memory use is O(number of speakers), not O(duration): a
// packet is written through to the speaker's WAV file and never accumulated.
package capture

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tamo2918/voicord/internal/audio"
	"github.com/tamo2918/voicord/internal/errdefs"
	"github.com/tamo2918/voicord/internal/observability"
)

// SpeakerStats describes one speaker's stream.
type SpeakerStats struct {
	// DurationSeconds is estimated purely from the byte count and the fixed
	// capture format; the file is never decoded for this.
	DurationSeconds float64
	BytesWritten    int64
	Path            string
}

// stream owns the single write handle for one speaker. Writes for the same
// speaker are serialized on its mutex; distinct speakers do not contend.
type stream struct {
	mu     sync.Mutex
	writer *audio.Writer
	path   string
}

// Sink writes per-speaker audio packets directly to per-speaker WAV files.
type Sink struct {
	dir       string
	sessionID string
	format    audio.Format
	maxBytes  int64 // recording ceiling per speaker, 0 = unlimited

	mu        sync.Mutex
	streams   map[uint64]*stream
	finalized bool

	log zerolog.Logger
}

// NewSink creates a sink writing into dir. The format is the fixed capture
// format for the whole session. maxSeconds bounds each speaker's recording
// (0 disables the ceiling).
func NewSink(dir, sessionID string, format audio.Format, maxSeconds int) *Sink {
	var maxBytes int64
	if maxSeconds > 0 {
		maxBytes = int64(maxSeconds) * int64(format.ByteRate())
	}
	return &Sink{
		dir:       dir,
		sessionID: sessionID,
		format:    format,
		maxBytes:  maxBytes,
		streams:   make(map[uint64]*stream),
		log:       observability.WithSession(sessionID),
	}
}

func (s *Sink) speakerPath(speakerID uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_user_%d.wav", s.sessionID, speakerID))
}

// Write appends a PCM packet to the speaker's stream, opening the backing
// file on the first packet for that speaker. Fails after Finalize.
func (s *Sink) Write(speakerID uint64, pcm []byte) error {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return errdefs.Newf(errdefs.CodeWriteAfterFinalize,
			"capture sink for session %s is finalized", s.sessionID)
	}

	st, ok := s.streams[speakerID]
	if !ok {
		path := s.speakerPath(speakerID)
		w, err := audio.NewWriter(path, s.format)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("open capture stream for speaker %d: %w", speakerID, err)
		}
		st = &stream{writer: w, path: path}
		s.streams[speakerID] = st
		observability.RecordStreamOpened()
		s.log.Info().Uint64("speaker_id", speakerID).Str("path", path).Msg("Opened capture stream")
	}
	s.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	if s.maxBytes > 0 && st.writer.BytesWritten()+int64(len(pcm)) > s.maxBytes {
		return errdefs.Newf(errdefs.CodeWriteAfterFinalize,
			"recording ceiling reached for speaker %d (%.1fs)",
			speakerID, s.format.Duration(s.maxBytes))
	}

	if _, err := st.writer.Write(pcm); err != nil {
		return err
	}
	observability.RecordCaptureBytes(len(pcm))
	return nil
}

// Stats returns per-speaker statistics for all streams.
func (s *Sink) Stats() map[uint64]SpeakerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[uint64]SpeakerStats, len(s.streams))
	for id, st := range s.streams {
		st.mu.Lock()
		written := st.writer.BytesWritten()
		st.mu.Unlock()
		stats[id] = SpeakerStats{
			DurationSeconds: s.format.Duration(written),
			BytesWritten:    written,
			Path:            st.path,
		}
	}
	return stats
}

// SpeakerFile is one speaker's finished recording.
type SpeakerFile struct {
	SpeakerID uint64
	Path      string
}

// Files lists the per-speaker recordings in ascending speaker order.
func (s *Sink) Files() []SpeakerFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]SpeakerFile, 0, len(s.streams))
	for id, st := range s.streams {
		files = append(files, SpeakerFile{SpeakerID: id, Path: st.path})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].SpeakerID < files[j].SpeakerID })
	return files
}

// Finalize flushes and closes every open stream. Idempotent; writes made
// after Finalize fail with WRITE_AFTER_FINALIZE.
func (s *Sink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return nil
	}
	s.finalized = true

	var firstErr error
	for id, st := range s.streams {
		st.mu.Lock()
		written := st.writer.BytesWritten()
		err := st.writer.Close()
		st.mu.Unlock()

		observability.RecordStreamClosed()
		if err != nil {
			s.log.Error().Err(err).Uint64("speaker_id", id).Msg("Failed to close capture stream")
			if firstErr == nil {
				firstErr = fmt.Errorf("close capture stream for speaker %d: %w", id, err)
			}
			continue
		}
		s.log.Info().
			Uint64("speaker_id", id).
			Float64("duration_s", s.format.Duration(written)).
			Int64("bytes", written).
			Msg("Finished capture stream")
	}
	return firstErr
}
