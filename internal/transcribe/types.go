package transcribe

import "context"

// Segment is one timestamped span of transcribed speech. After reassembly of
// a chunked transcription, Start/End are relative to the original untrimmed
// audio, not the chunk.
type Segment struct {
	Start float64 // seconds
	End   float64 // seconds
	Text  string
}

// Result is the raw output of one backend call for one audio resource.
type Result struct {
	Text     string
	Segments []Segment
}

// Backend converts a single audio file into text with timestamped segments.
// Implementations must fail explicitly when the resource cannot be read,
// never return partial output.
type Backend interface {
	Transcribe(ctx context.Context, path, language string) (*Result, error)
}

// Transcription is the reassembled output for one input file.
type Transcription struct {
	Text       string
	Segments   []Segment
	WasChunked bool
	ChunkCount int // set only when WasChunked
}

// FileResult is one slot of the independent multi-file mode. Exactly one of
// Transcription and Err is set; a failed file never aborts its siblings.
type FileResult struct {
	Path          string
	Transcription *Transcription
	Err           error
}
