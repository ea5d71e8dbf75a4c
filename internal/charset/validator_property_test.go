//go:build property
// +build property

package charset

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

func validateBytes(v *Validator, content []byte, enc Encoding) Outcome {
	if err := afero.WriteFile(v.Fs(), "/prop.bin", content, 0o644); err != nil {
		return Outcome{Status: StatusIOError, Err: err}
	}

	return v.Validate("/prop.bin", enc)
}

// TestValidatorProperties tests the validator against the stdlib view of
// UTF-8 and against byte-transparent encodings.
func TestValidatorProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	v := NewValidator(WithFs(afero.NewMemMapFs()), WithBufferSize(64))
	reg := DefaultRegistry()

	utf8Enc, _ := reg.Lookup("UTF-8")
	latin1, _ := reg.Lookup("ISO-8859-1")
	utf16le, _ := reg.Lookup("UTF-16LE")
	sjis, _ := reg.Lookup("Shift_JIS")

	// Property: arbitrary bytes are valid UTF-8 exactly when the stdlib agrees
	properties.Property("utf-8 validity matches unicode/utf8", prop.ForAll(
		func(content []byte) bool {
			out := validateBytes(v, content, utf8Enc)
			if utf8.Valid(content) {
				return out.Status == StatusValid && out.Chars == int64(utf8.RuneCount(content))
			}
			return out.Status == StatusInvalid
		},
		gen.SliceOf(gen.UInt8()),
	))

	// Property: every byte sequence is valid Latin-1, one char per byte
	properties.Property("latin1 accepts everything", prop.ForAll(
		func(content []byte) bool {
			out := validateBytes(v, content, latin1)
			return out.Status == StatusValid && out.Chars == int64(len(content))
		},
		gen.SliceOf(gen.UInt8()),
	))

	// Property: text encoded as UTF-16LE validates with its rune count
	properties.Property("utf-16le round trip", prop.ForAll(
		func(s string) bool {
			if !utf8.ValidString(s) {
				return true
			}
			encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(s)
			if err != nil {
				return true
			}
			out := validateBytes(v, []byte(encoded), utf16le)
			return out.Status == StatusValid && out.Chars == int64(utf8.RuneCountInString(s))
		},
		gen.AnyString(),
	))

	// Property: Shift_JIS content is valid exactly when it decodes without
	// replacement characters
	properties.Property("shift_jis validity matches the decoder", prop.ForAll(
		func(content []byte) bool {
			decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(content)
			want := err == nil && !bytes.ContainsRune(decoded, utf8.RuneError)

			out := validateBytes(v, content, sjis)
			if want {
				return out.Status == StatusValid && out.Chars == int64(utf8.RuneCount(decoded))
			}
			return out.Status == StatusInvalid
		},
		gen.SliceOf(gen.UInt8()),
	))

	// Property: validating the same content twice gives the same outcome
	properties.Property("validation is idempotent", prop.ForAll(
		func(content []byte) bool {
			first := validateBytes(v, content, utf8Enc)
			second := v.Validate("/prop.bin", utf8Enc)
			return first.Status == second.Status && first.Chars == second.Chars
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
