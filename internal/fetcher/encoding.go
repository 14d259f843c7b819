package fetcher

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// charsetAliases covers names used by Japanese data portals that are not
// WHATWG labels.
var charsetAliases = map[string]string{
	"cp932":    "windows-31j",
	"932":      "windows-31j",
	"ansi_932": "windows-31j",
	"utf8":     "utf-8",
	"65001":    "utf-8",
}

// LookupEncoding resolves a charset label such as "shift_jis", "cp932" or "utf-8".
func LookupEncoding(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" {
		return unicode.UTF8, nil
	}
	if alias, ok := charsetAliases[label]; ok {
		label = alias
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", name)
	}
	return enc, nil
}

// IsUTF8 reports whether the named encoding is UTF-8.
func IsUTF8(name string) bool {
	label := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := charsetAliases[label]; ok {
		label = alias
	}
	return label == "" || label == "utf-8"
}

// DecodeString decodes raw bytes held in s. UTF-8 input must already be valid;
// other encodings are converted through x/text and must not produce
// replacement characters.
func DecodeString(s, charset string) (string, error) {
	if IsUTF8(charset) {
		if !utf8.ValidString(s) {
			return "", eris.New("fetcher: invalid utf-8")
		}
		return s, nil
	}

	enc, err := LookupEncoding(charset)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().String(s)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: decode %s", charset)
	}
	if strings.Contains(out, "\uFFFD") && !strings.Contains(s, "\uFFFD") {
		return "", eris.Errorf("fetcher: bytes not representable in %s", charset)
	}
	return out, nil
}
