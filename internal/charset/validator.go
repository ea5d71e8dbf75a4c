package charset

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/text/transform"

	"github.com/conneroisu/charsetcop/internal/errors"
)

// DefaultBufferSize is the size of the read buffer used while decoding.
const DefaultBufferSize = 8 * 1024

// Status classifies the result of validating one file.
type Status int

const (
	// StatusValid means every byte sequence decoded to a character.
	StatusValid Status = iota
	// StatusInvalid means the file holds a malformed byte sequence.
	StatusInvalid
	// StatusIOError means the file could not be read.
	StatusIOError
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusIOError:
		return "io_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of validating one file against one encoding.
// Chars is only meaningful when Status is StatusValid; Err is set for the two
// other statuses.
type Outcome struct {
	Status Status
	Chars  int64
	Err    error
}

// Valid reports whether the outcome is StatusValid.
func (o Outcome) Valid() bool { return o.Status == StatusValid }

// BufferPool manages reusable read buffers.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a pool handing out buffers of size bytes.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Get retrieves a buffer from the pool.
func (p *BufferPool) Get() *[]byte {
	return p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool.
func (p *BufferPool) Put(buf *[]byte) {
	p.pool.Put(buf)
}

// Validator checks files against encodings. It keeps no per-call state and is
// safe for concurrent use.
type Validator struct {
	fs         afero.Fs
	bufferSize int
	buffers    *BufferPool
}

// Option configures a Validator.
type Option func(*Validator)

// WithFs makes the validator read files from fs instead of the OS.
func WithFs(fs afero.Fs) Option {
	return func(v *Validator) { v.fs = fs }
}

// WithBufferSize overrides DefaultBufferSize. Non-positive sizes are ignored.
func WithBufferSize(size int) Option {
	return func(v *Validator) {
		if size > 0 {
			v.bufferSize = size
		}
	}
}

// NewValidator creates a validator reading from the OS filesystem unless
// WithFs says otherwise.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		fs:         afero.NewOsFs(),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.buffers = NewBufferPool(v.bufferSize)

	return v
}

// Fs returns the filesystem the validator reads from.
func (v *Validator) Fs() afero.Fs { return v.fs }

var errLossy = stderrors.New("decoded text does not re-encode to the original bytes")

// Validate streams the file at path through enc's decoder. The file must be an
// existing regular file; anything else is reported as StatusIOError.
func (v *Validator) Validate(path string, enc Encoding) Outcome {
	if enc.IsZero() {
		return Outcome{
			Status: StatusIOError,
			Err:    errors.NewInternalError(errors.ErrCodeInternalError, "encoding not initialized", nil),
		}
	}

	info, err := v.fs.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Outcome{Status: StatusIOError, Err: errors.ErrNotRegularFile(path, err)}
		}
		return Outcome{Status: StatusIOError, Err: errors.WrapIO(err, path, "stat failed")}
	}
	if !info.Mode().IsRegular() {
		return Outcome{Status: StatusIOError, Err: errors.ErrNotRegularFile(path, nil)}
	}

	file, err := v.fs.Open(path)
	if err != nil {
		return Outcome{Status: StatusIOError, Err: errors.WrapIO(err, path, "open failed")}
	}
	defer file.Close()

	src := &sourceReader{r: bufio.NewReaderSize(file, v.bufferSize)}
	decoded := transform.NewReader(src, enc.codec.NewDecoder())

	// Decoders emit U+FFFD for malformed input. Where U+FFFD is also a
	// character of its own, only re-encoding tells the two apart; the
	// encodings able to represent it map characters to bytes one to one.
	var check io.WriteCloser
	var replacement replacementScanner
	if enc.literalReplacement {
		src.orig = new(bytes.Buffer)
		check = transform.NewWriter(&losslessWriter{orig: src.orig}, enc.codec.NewEncoder())
	}

	bufp := v.buffers.Get()
	defer v.buffers.Put(bufp)
	buf := *bufp

	var chars int64
	invalid := func() Outcome {
		return Outcome{Status: StatusInvalid, Err: errors.ErrMalformedInput(path, enc.Name())}
	}

	for {
		n, err := decoded.Read(buf)
		if n > 0 {
			chars += countRunes(buf[:n])
			if check != nil {
				if _, werr := check.Write(buf[:n]); werr != nil {
					return invalid()
				}
			} else if replacement.found(buf[:n]) {
				return invalid()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if src.err != nil {
				return Outcome{Status: StatusIOError, Err: errors.WrapIO(src.err, path, "read failed")}
			}
			return invalid()
		}
	}

	if check != nil {
		if err := check.Close(); err != nil || src.orig.Len() != 0 {
			return invalid()
		}
	}

	return Outcome{Status: StatusValid, Chars: chars}
}

// IsValidForEncoding reports whether path decodes cleanly under enc. The
// error is non-nil only for I/O failures.
func (v *Validator) IsValidForEncoding(path string, enc Encoding) (bool, error) {
	out := v.Validate(path, enc)
	if out.Status == StatusIOError {
		return false, out.Err
	}

	return out.Valid(), nil
}

// FindFirstValidEncoding tries candidates in order and returns the first one
// path validates under. The boolean is false when none does. An I/O failure
// stops the search and is returned as is.
func (v *Validator) FindFirstValidEncoding(path string, candidates ...Encoding) (Encoding, bool, error) {
	return v.FindFirstValidEncodingContext(context.Background(), path, candidates...)
}

// FindFirstValidEncodingContext is FindFirstValidEncoding with cancellation
// checked between candidates.
func (v *Validator) FindFirstValidEncodingContext(ctx context.Context, path string, candidates ...Encoding) (Encoding, bool, error) {
	for _, enc := range candidates {
		if err := ctx.Err(); err != nil {
			return Encoding{}, false, err
		}

		ok, err := v.IsValidForEncoding(path, enc)
		if err != nil {
			return Encoding{}, false, err
		}
		if ok {
			return enc, true, nil
		}
	}

	return Encoding{}, false, nil
}

// sourceReader remembers the first read failure so it can be told apart from
// a decoding error. When orig is set it also keeps a copy of every byte handed
// to the decoder.
type sourceReader struct {
	r    io.Reader
	orig *bytes.Buffer
	err  error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if s.orig != nil {
		s.orig.Write(p[:n])
	}
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}

	return n, err
}

// losslessWriter consumes re-encoded bytes and fails on the first one that
// differs from the source.
type losslessWriter struct {
	orig *bytes.Buffer
}

func (w *losslessWriter) Write(p []byte) (int, error) {
	if w.orig.Len() < len(p) || !bytes.Equal(w.orig.Next(len(p)), p) {
		return 0, errLossy
	}

	return len(p), nil
}

// replacementUTF8 is U+FFFD as it appears in decoded text.
var replacementUTF8 = []byte("\uFFFD")

// replacementScanner finds U+FFFD in decoded text handed over in chunks that
// may split it.
type replacementScanner struct {
	tail []byte
}

func (r *replacementScanner) found(p []byte) bool {
	keep := len(replacementUTF8) - 1

	if len(r.tail) > 0 {
		seam := append(r.tail, p[:min(len(p), keep)]...)
		if bytes.Contains(seam, replacementUTF8) {
			return true
		}
	}
	if bytes.Contains(p, replacementUTF8) {
		return true
	}

	if len(p) >= keep {
		r.tail = append(r.tail[:0], p[len(p)-keep:]...)
	} else {
		joined := append(r.tail, p...)
		r.tail = append(r.tail[:0], joined[len(joined)-min(len(joined), keep):]...)
	}

	return false
}

// countRunes counts code points in valid UTF-8 by skipping continuation
// bytes, so a rune split across two reads is counted once.
func countRunes(p []byte) int64 {
	var n int64
	for _, b := range p {
		if b&0xC0 != 0x80 {
			n++
		}
	}

	return n
}
