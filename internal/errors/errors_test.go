package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharsetErrorError(t *testing.T) {
	err := NewIOError(ErrCodeReadFailed, "read failed", errors.New("device gone")).
		WithPath("/data/a.txt")

	errorStr := err.Error()
	assert.Contains(t, errorStr, "[ERR_READ_FAILED]")
	assert.Contains(t, errorStr, "'/data/a.txt'")
	assert.Contains(t, errorStr, "read failed")
	assert.Contains(t, errorStr, "device gone")
}

func TestCharsetErrorIs(t *testing.T) {
	err := ErrNotRegularFile("/missing", fs.ErrNotExist)

	assert.True(t, errors.Is(err, &CharsetError{Type: ErrorTypeIO, Code: ErrCodeFileNotFound}))
	assert.False(t, errors.Is(err, &CharsetError{Type: ErrorTypeIO, Code: ErrCodeNotRegularFile}))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "cause must stay reachable")
}

func TestErrNotRegularFileCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotRegularFile, ErrNotRegularFile("/dir", nil).Code)
	assert.Equal(t, ErrCodeFileNotFound, ErrNotRegularFile("/nope", fs.ErrNotExist).Code)
}

func TestTypePredicates(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		io       bool
		config   bool
		encoding bool
		recover  bool
	}{
		{
			name:    "io",
			err:     NewIOError(ErrCodeReadFailed, "x", nil),
			io:      true,
			recover: true,
		},
		{
			name:   "config",
			err:    ErrInvalidRootPath("/dev/null"),
			config: true,
		},
		{
			name:     "encoding",
			err:      ErrMalformedInput("/a", "UTF-8"),
			encoding: true,
			recover:  true,
		},
		{
			name: "plain",
			err:  errors.New("plain"),
		},
		{
			name:    "wrapped io",
			err:     fmt.Errorf("outer: %w", NewIOError(ErrCodeReadFailed, "x", nil)),
			io:      true,
			recover: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.io, IsIOError(tc.err))
			assert.Equal(t, tc.config, IsConfigError(tc.err))
			assert.Equal(t, tc.encoding, IsEncodingError(tc.err))
			assert.Equal(t, tc.recover, IsRecoverable(tc.err))
		})
	}
}

func TestWrapIO(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, WrapIO(nil, "/a", "msg"))
	})

	t.Run("not exist", func(t *testing.T) {
		err := WrapIO(&fs.PathError{Op: "open", Path: "/a", Err: fs.ErrNotExist}, "/a", "open failed")
		require.NotNil(t, err)
		assert.Equal(t, ErrCodeFileNotFound, err.Code)
		assert.Equal(t, "/a", err.Path)
		assert.True(t, err.Recoverable)
	})

	t.Run("permission", func(t *testing.T) {
		err := WrapIO(&fs.PathError{Op: "open", Path: "/a", Err: fs.ErrPermission}, "/a", "open failed")
		assert.Equal(t, ErrCodePermissionDenied, err.Code)
	})

	t.Run("other", func(t *testing.T) {
		err := WrapIO(errors.New("boom"), "/a", "read failed")
		assert.Equal(t, ErrCodeReadFailed, err.Code)
	})
}

func TestWrapKeepsPath(t *testing.T) {
	inner := ErrNotRegularFile("/x", nil)
	outer := WrapConfig(inner, ErrCodeConfigInvalid, "bad root")

	assert.Equal(t, "/x", outer.Path)
	assert.False(t, outer.Recoverable)
	assert.Equal(t, "/x", GetPath(fmt.Errorf("ctx: %w", outer)))
	assert.Equal(t, ErrCodeConfigInvalid, GetCode(outer))
	assert.Equal(t, ErrCodeInternalError, GetCode(errors.New("plain")))
}

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.warns = append(l.warns, msg)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, ErrMalformedInput("/a", "UTF-8"))
	handler.Handle(ctx, NewIOError(ErrCodeReadFailed, "x", nil))
	handler.Handle(ctx, ErrInvalidRootPath("/b"))
	handler.Handle(ctx, errors.New("plain"))

	assert.Equal(t, []string{"Encoding check failed", "Error processing path"}, logger.warns)
	assert.Equal(t, []string{"Error occurred", "Unhandled error occurred"}, logger.errors)
}
