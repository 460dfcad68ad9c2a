package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/tamo2918/voicord/internal/errdefs"
)

// Format describes a fixed PCM stream layout. For capture this is a session
// constant (e.g. 48kHz stereo 16-bit), never negotiated per packet.
type Format struct {
	SampleRate  int // Hz
	Channels    int
	SampleWidth int // bytes per sample
}

// FrameSize returns the size of one frame (one sample per channel) in bytes.
func (f Format) FrameSize() int {
	return f.Channels * f.SampleWidth
}

// ByteRate returns bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.FrameSize()
}

// Duration returns the playback duration in seconds of dataBytes of PCM.
func (f Format) Duration(dataBytes int64) float64 {
	samples := float64(dataBytes) / float64(f.FrameSize())
	return samples / float64(f.SampleRate)
}

// BytesForMs returns the byte offset of the given millisecond position,
// aligned down to a whole frame.
func (f Format) BytesForMs(ms int64) int64 {
	frames := int64(f.SampleRate) * ms / 1000
	return frames * int64(f.FrameSize())
}

const wavHeaderSize = 44

// Writer streams PCM frames into a WAV file. The header is written with
// placeholder sizes at open time and patched on Close, so frames can be
// appended packet by packet without buffering the recording in memory.
type Writer struct {
	f       *os.File
	format  Format
	written int64
	closed  bool
}

// NewWriter creates the file and writes the WAV header. The format is fixed
// for the lifetime of the file.
func NewWriter(path string, format Format) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}

	w := &Writer{f: f, format: format}
	if err := w.writeHeader(0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	return w, nil
}

func (w *Writer) writeHeader(dataSize uint32) error {
	var hdr [wavHeaderSize]byte

	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataSize)
	copy(hdr[8:12], "WAVE")

	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(w.format.Channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.format.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(w.format.ByteRate()))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(w.format.FrameSize()))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(w.format.SampleWidth*8))

	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)

	if _, err := w.f.WriteAt(hdr[:], 0); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	return nil
}

// Write appends PCM bytes to the file.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errdefs.New(errdefs.CodeWriteAfterFinalize, "wav writer is closed")
	}
	n, err := w.f.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("write wav data: %w", err)
	}
	return n, nil
}

// BytesWritten returns the number of PCM data bytes written so far.
func (w *Writer) BytesWritten() int64 {
	return w.written
}

// Format returns the writer's fixed PCM format.
func (w *Writer) Format() Format {
	return w.format
}

// Close patches the RIFF and data chunk sizes and closes the file.
// Safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writeHeader(uint32(w.written)); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Reader provides sequential access to the PCM data of a WAV file without
// loading it into memory.
type Reader struct {
	f          *os.File
	format     Format
	dataOffset int64
	dataSize   int64
	pos        int64 // bytes read from the data chunk
}

// OpenReader opens a WAV file and positions it at the start of the data chunk.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errdefs.Newf(errdefs.CodeNotFound, "audio file not found: %s", path)
		}
		return nil, fmt.Errorf("open wav file: %w", err)
	}

	r := &Reader{f: f}
	if err := r.parseHeader(); err != nil {
		f.Close()
		return nil, errdefs.Wrapf(err, errdefs.CodeDecodeFailure, "parse wav header: %s", path)
	}

	if _, err := f.Seek(r.dataOffset, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek wav data: %w", err)
	}
	return r, nil
}

func (r *Reader) parseHeader() error {
	var riff [12]byte
	if _, err := io.ReadFull(r.f, riff[:]); err != nil {
		return fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return fmt.Errorf("not a RIFF/WAVE file")
	}

	// Walk chunks until both fmt and data are located. Chunks other than
	// fmt/data (LIST, fact, ...) are skipped.
	offset := int64(12)
	haveFmt := false
	for {
		var chunk [8]byte
		if _, err := r.f.ReadAt(chunk[:], offset); err != nil {
			return fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := r.f.ReadAt(fmtChunk[:], offset+8); err != nil {
				return fmt.Errorf("read fmt chunk: %w", err)
			}
			if audioFormat := binary.LittleEndian.Uint16(fmtChunk[0:2]); audioFormat != 1 {
				return fmt.Errorf("unsupported audio format %d (only PCM)", audioFormat)
			}
			r.format.Channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			r.format.SampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			r.format.SampleWidth = int(binary.LittleEndian.Uint16(fmtChunk[14:16])) / 8
			if r.format.Channels == 0 || r.format.SampleRate == 0 || r.format.SampleWidth == 0 {
				return fmt.Errorf("invalid fmt chunk: %dHz %dch %d-byte",
					r.format.SampleRate, r.format.Channels, r.format.SampleWidth)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return fmt.Errorf("data chunk before fmt chunk")
			}
			r.dataOffset = offset + 8
			r.dataSize = size
			return nil
		}

		// Chunk sizes are padded to even byte boundaries.
		offset += 8 + size + size%2
	}
}

// Format returns the file's PCM format.
func (r *Reader) Format() Format {
	return r.format
}

// DataSize returns the size of the PCM data chunk in bytes.
func (r *Reader) DataSize() int64 {
	return r.dataSize
}

// Read fills p with PCM bytes, returning io.EOF at the end of the data chunk.
func (r *Reader) Read(p []byte) (int, error) {
	remaining := r.dataSize - r.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.f.Read(p)
	r.pos += int64(n)
	return n, err
}

// SeekMs positions the reader at the given millisecond offset into the audio.
func (r *Reader) SeekMs(ms int64) error {
	byteOff := r.format.BytesForMs(ms)
	if byteOff > r.dataSize {
		byteOff = r.dataSize
	}
	if _, err := r.f.Seek(r.dataOffset+byteOff, io.SeekStart); err != nil {
		return fmt.Errorf("seek wav data: %w", err)
	}
	r.pos = byteOff
	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
