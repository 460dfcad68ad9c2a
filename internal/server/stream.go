// Package server exposes the WebSocket ingest endpoint. A connected client
// drives one recording session: a start event, a stream of per-speaker media
// events, and a stop event that triggers transcription and summarization.
package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tamo2918/voicord/internal/capture"
	"github.com/tamo2918/voicord/internal/errdefs"
	"github.com/tamo2918/voicord/internal/observability"
	"github.com/tamo2918/voicord/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Ingest runs behind the bot process on a private network.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// StreamMessage is an inbound client event.
type StreamMessage struct {
	Event     string        `json:"event"`
	SessionID string        `json:"sessionId,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
}

// MediaPayload carries one base64-encoded PCM packet for one speaker.
type MediaPayload struct {
	SpeakerID   uint64 `json:"speakerId"`
	SpeakerName string `json:"speakerName,omitempty"`
	Payload     string `json:"payload"`
}

type speakerResult struct {
	SpeakerID  uint64 `json:"speakerId"`
	Name       string `json:"name"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	WasChunked bool   `json:"wasChunked"`
	ChunkCount int    `json:"chunkCount"`
	Error      string `json:"error,omitempty"`
}

type resultMessage struct {
	Event           string          `json:"event"`
	SessionID       string          `json:"sessionId"`
	DurationSeconds float64         `json:"durationSeconds"`
	Summary         string          `json:"summary,omitempty"`
	SummaryError    string          `json:"summaryError,omitempty"`
	Speakers        []speakerResult `json:"speakers"`
}

// Server handles WebSocket ingest connections.
type Server struct {
	registry *capture.Registry
	pipeline *pipeline.Pipeline
	log      zerolog.Logger
}

func New(registry *capture.Registry, pipe *pipeline.Pipeline) *Server {
	return &Server{
		registry: registry,
		pipeline: pipe,
		log:      observability.GetLogger().With().Str("component", "server").Logger(),
	}
}

// streamSession is the per-connection state. One connection drives at most
// one recording session at a time.
type streamSession struct {
	conn *websocket.Conn
	srv  *Server

	mu    sync.Mutex
	sess  *capture.Session
	names map[uint64]string

	logger zerolog.Logger
}

// ServeHTTP makes the server mountable on any mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleStream(w, r)
}

// HandleStream is the WebSocket entry point.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}
	defer conn.Close()

	session := &streamSession{
		conn:   conn,
		srv:    s,
		names:  make(map[uint64]string),
		logger: s.log,
	}
	session.readLoop(r)
}

func (ss *streamSession) readLoop(r *http.Request) {
	defer ss.abandonSession()

	for {
		_, message, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ss.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var msg StreamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			ss.logger.Error().Err(err).Msg("Failed to parse stream message")
			ss.sendError("malformed message: " + err.Error())
			continue
		}

		switch msg.Event {
		case "start":
			ss.handleStart(msg.SessionID)
		case "media":
			ss.handleMedia(msg.Media)
		case "stop":
			ss.handleStop(r)
			return
		default:
			ss.logger.Warn().Str("event", msg.Event).Msg("Unknown stream event")
			ss.sendError("unknown event: " + msg.Event)
		}
	}
}

func (ss *streamSession) handleStart(sessionID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.sess != nil {
		ss.sendErrorLocked("a recording session is already active on this connection")
		return
	}

	sess, err := ss.srv.registry.Start(sessionID)
	if err != nil {
		ss.sendErrorLocked(err.Error())
		return
	}
	ss.sess = sess
	ss.logger = observability.WithSession(sess.ID)
	ss.logger.Info().Msg("Recording session started")

	ss.writeJSONLocked(map[string]string{"event": "started", "sessionId": sess.ID})
}

func (ss *streamSession) handleMedia(media *MediaPayload) {
	if media == nil {
		ss.sendError("media event missing payload")
		return
	}

	ss.mu.Lock()
	sess := ss.sess
	if sess != nil && media.SpeakerName != "" {
		ss.names[media.SpeakerID] = media.SpeakerName
	}
	ss.mu.Unlock()

	if sess == nil {
		ss.sendError("media received before start")
		return
	}

	pcm, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		ss.logger.Error().Err(err).Msg("Failed to decode base64 audio")
		ss.sendError("media payload is not valid base64")
		return
	}

	if err := sess.Sink.Write(media.SpeakerID, pcm); err != nil {
		ss.logger.Error().Err(err).Uint64("speaker_id", media.SpeakerID).Msg("Capture write failed")
		ss.sendError(causeMessage(err))
	}
}

func (ss *streamSession) handleStop(r *http.Request) {
	ss.mu.Lock()
	sess := ss.sess
	names := ss.names
	ss.sess = nil
	ss.mu.Unlock()

	if sess == nil {
		ss.sendError("stop received before start")
		return
	}

	if _, err := ss.srv.registry.End(sess.ID); err != nil {
		ss.sendError(causeMessage(err))
		return
	}
	ss.logger.Info().Msg("Recording session stopped, processing")

	res, err := ss.srv.pipeline.Process(r.Context(), sess, names)
	if err != nil {
		ss.sendError(causeMessage(err))
		return
	}

	out := resultMessage{
		Event:           "result",
		SessionID:       res.SessionID,
		DurationSeconds: res.Duration.Seconds(),
		Summary:         res.Summary,
		Speakers:        make([]speakerResult, 0, len(res.Speakers)),
	}
	if res.SummaryErr != nil {
		out.SummaryError = causeMessage(res.SummaryErr)
	}
	for i := range res.Speakers {
		sp := &res.Speakers[i]
		sr := speakerResult{SpeakerID: sp.SpeakerID, Name: sp.Name}
		if sp.Err != nil {
			sr.Error = causeMessage(sp.Err)
		} else {
			sr.Text = sp.Transcription.Text
			sr.Transcript = sp.Transcript()
			sr.WasChunked = sp.Transcription.WasChunked
			sr.ChunkCount = sp.Transcription.ChunkCount
		}
		out.Speakers = append(out.Speakers, sr)
	}

	ss.mu.Lock()
	ss.writeJSONLocked(out)
	ss.mu.Unlock()
}

// abandonSession finalizes a session whose connection dropped without a stop
// event. The recordings stay on disk; no processing is attempted because the
// client is gone.
func (ss *streamSession) abandonSession() {
	ss.mu.Lock()
	sess := ss.sess
	ss.sess = nil
	ss.mu.Unlock()

	if sess == nil {
		return
	}
	ss.logger.Warn().Msg("Connection closed mid-session, finalizing recordings")
	if _, err := ss.srv.registry.End(sess.ID); err != nil {
		ss.logger.Error().Err(err).Msg("Failed to finalize abandoned session")
	}
}

func (ss *streamSession) sendError(message string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sendErrorLocked(message)
}

func (ss *streamSession) sendErrorLocked(message string) {
	ss.writeJSONLocked(map[string]string{"event": "error", "message": message})
}

func (ss *streamSession) writeJSONLocked(v any) {
	if err := ss.conn.WriteJSON(v); err != nil {
		ss.logger.Error().Err(err).Msg("Failed to write WebSocket message")
	}
}

// causeMessage turns an error into the specific, human-readable cause shown
// to the client.
func causeMessage(err error) string {
	var e *errdefs.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Code {
	case errdefs.CodeBackendUnavailable:
		return "backend unavailable: " + e.Message
	case errdefs.CodeBudgetExceeded:
		return "summary could not be reduced below the configured budget"
	case errdefs.CodeWriteAfterFinalize:
		return e.Message
	default:
		return err.Error()
	}
}
