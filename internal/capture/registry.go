package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tamo2918/voicord/internal/audio"
	"github.com/tamo2918/voicord/internal/observability"
)

// Session is one recording session: a directory of per-speaker streams plus
// its sink. Sessions are allocated by the Registry on start and released on
// End; they are never aliased.
type Session struct {
	ID        string
	Dir       string
	Sink      *Sink
	StartedAt time.Time
}

// Registry owns the active sessions. All mutations go through the registry,
// which enforces single-writer-per-key discipline.
type Registry struct {
	baseDir string
	format  audio.Format
	maxSec  int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry rooted at baseDir.
func NewRegistry(baseDir string, format audio.Format, maxSeconds int) *Registry {
	return &Registry{
		baseDir:  baseDir,
		format:   format,
		maxSec:   maxSeconds,
		sessions: make(map[string]*Session),
	}
}

// Start allocates a new session. Pass an empty id to have one generated.
// Starting an already-active session id is an error.
func (r *Registry) Start(id string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, fmt.Errorf("session %s is already recording", id)
	}

	dir := filepath.Join(r.baseDir, "session_"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	sess := &Session{
		ID:        id,
		Dir:       dir,
		Sink:      NewSink(dir, id, r.format, r.maxSec),
		StartedAt: time.Now(),
	}
	r.sessions[id] = sess
	observability.RecordSessionStart()
	return sess, nil
}

// Get returns the active session with the given id, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// End finalizes the session's sink and releases the session. The session's
// files stay on disk for downstream processing.
func (r *Registry) End(id string) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no active session %s", id)
	}

	observability.RecordSessionEnd()
	if err := sess.Sink.Finalize(); err != nil {
		return sess, err
	}
	return sess, nil
}

// Active returns the number of active sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
