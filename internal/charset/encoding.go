// Package charset checks whether file content is a valid encoding of text
// under a named character set.
//
// The Validator streams a file through the decoder of an Encoding. The x/text
// decoders replace malformed input with U+FFFD, so a replacement character in
// the decoded text marks the file invalid. Encodings that can represent U+FFFD
// themselves are re-encoded and compared with the bytes read instead. Names are
// resolved to encodings by a Registry, which callers inject; DefaultRegistry
// covers the IANA names known to golang.org/x/text plus the UTF-32 family.
package charset

import (
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/conneroisu/charsetcop/internal/errors"
)

// Encoding is a named character encoding. The zero value is not usable.
type Encoding struct {
	name  string
	codec encoding.Encoding
	// literalReplacement is set when U+FFFD has an encoding of its own, so a
	// decoded U+FFFD does not by itself prove the input malformed.
	literalReplacement bool
}

// NewEncoding binds a name to a codec. It is mainly useful for encodings that
// are not in the default registry, such as test doubles.
func NewEncoding(name string, codec encoding.Encoding) Encoding {
	return Encoding{name: name, codec: codec, literalReplacement: encodesReplacement(codec)}
}

// encodesReplacement reports whether codec can write U+FFFD. That holds for
// the Unicode transformation formats and GB18030 and for no legacy charset.
func encodesReplacement(codec encoding.Encoding) bool {
	_, err := codec.NewEncoder().String("\uFFFD")
	return err == nil
}

// Name returns the canonical name of the encoding.
func (e Encoding) Name() string { return e.name }

func (e Encoding) String() string { return e.name }

// IsZero reports whether e was never bound to a codec.
func (e Encoding) IsZero() bool { return e.codec == nil }

// Registry resolves encoding names.
type Registry interface {
	Lookup(name string) (Encoding, error)
}

// Lookup is a convenience for resolving several names at once, in order.
func Lookup(r Registry, names ...string) ([]Encoding, error) {
	encs := make([]Encoding, 0, len(names))
	for _, name := range names {
		enc, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		encs = append(encs, enc)
	}

	return encs, nil
}

// Names the IANA index either lacks or maps to a BOM-sensitive or missing
// codec. The BOM sensitive variants cannot round-trip a leading byte order
// mark, so the plain big endian codec is used and a BOM is read as an ordinary
// character. Windows-31J is the repertoire x/text implements as Shift_JIS.
var overrides = map[string]Encoding{
	"UTF-16":      NewEncoding("UTF-16", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)),
	"UTF-32":      NewEncoding("UTF-32", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)),
	"UTF-32BE":    NewEncoding("UTF-32BE", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)),
	"UTF-32LE":    NewEncoding("UTF-32LE", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)),
	"WINDOWS-31J": NewEncoding("Windows-31J", japanese.ShiftJIS),
}

type ianaRegistry struct{}

// DefaultRegistry returns the registry of IANA names supported by
// golang.org/x/text, extended with UTF-32, UTF-32BE and UTF-32LE.
func DefaultRegistry() Registry {
	return ianaRegistry{}
}

func (ianaRegistry) Lookup(name string) (Encoding, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return Encoding{}, errors.ErrUnknownEncoding(name, nil)
	}
	if enc, ok := overrides[key]; ok {
		return enc, nil
	}

	codec, err := ianaindex.IANA.Encoding(key)
	if err != nil {
		return Encoding{}, errors.ErrUnknownEncoding(name, err)
	}
	if codec == nil {
		return Encoding{}, errors.NewConfigError(
			errors.ErrCodeUnsupportedEncoding,
			"encoding '"+name+"' is registered but not supported",
		)
	}

	canonical := canonicalName(codec)
	if canonical == "" {
		canonical = key
	}
	if enc, ok := overrides[strings.ToUpper(canonical)]; ok {
		return enc, nil
	}

	return NewEncoding(canonical, codec), nil
}

// canonicalName prefers the MIME name ("ISO-8859-1") over the IANA one
// ("ISO_8859-1:1987").
func canonicalName(codec encoding.Encoding) string {
	if name, err := ianaindex.MIME.Name(codec); err == nil && name != "" {
		return name
	}
	if name, err := ianaindex.IANA.Name(codec); err == nil {
		return name
	}

	return ""
}

// StaticRegistry resolves names against a fixed set of encodings, ignoring
// case.
type StaticRegistry map[string]Encoding

// NewStaticRegistry builds a StaticRegistry from encs.
func NewStaticRegistry(encs ...Encoding) StaticRegistry {
	r := make(StaticRegistry, len(encs))
	for _, enc := range encs {
		r[strings.ToUpper(enc.Name())] = enc
	}

	return r
}

func (r StaticRegistry) Lookup(name string) (Encoding, error) {
	enc, ok := r[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Encoding{}, errors.ErrUnknownEncoding(name, nil)
	}

	return enc, nil
}

// Supported lists the canonical names DefaultRegistry resolves, sorted.
func Supported() []string {
	var all []encoding.Encoding
	all = append(all, charmap.All...)
	all = append(all, unicode.All...)
	all = append(all, japanese.All...)
	all = append(all, korean.All...)
	all = append(all, simplifiedchinese.All...)
	all = append(all, traditionalchinese.All...)

	reg := DefaultRegistry()
	seen := make(map[string]bool)
	names := make([]string, 0, len(all)+len(overrides))

	add := func(name string) {
		enc, err := reg.Lookup(name)
		if err != nil || seen[enc.Name()] {
			return
		}
		seen[enc.Name()] = true
		names = append(names, enc.Name())
	}

	for _, codec := range all {
		if name := canonicalName(codec); name != "" {
			add(name)
		}
	}
	add("US-ASCII")
	for name := range overrides {
		add(name)
	}

	sort.Strings(names)

	return names
}
