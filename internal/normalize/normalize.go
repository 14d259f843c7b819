// Package normalize canonicalizes Japanese place names so that population
// tables and boundary files from different vendors agree on identity.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// DefaultChomeSuffix is the block-numbering suffix whose numerals are converted to kanji.
const DefaultChomeSuffix = "丁目"

// DefaultKanjiNumerals maps Arabic numerals to kanji for chome numbers 0–20.
var DefaultKanjiNumerals = map[string]string{
	"0": "零", "1": "一", "2": "二", "3": "三", "4": "四",
	"5": "五", "6": "六", "7": "七", "8": "八", "9": "九",
	"10": "十", "11": "十一", "12": "十二", "13": "十三", "14": "十四",
	"15": "十五", "16": "十六", "17": "十七", "18": "十八", "19": "十九",
	"20": "二十",
}

// DefaultVariants folds variant and simplified glyphs seen in place-name data
// onto the forms used by the boundary files.
var DefaultVariants = map[string]string{
	"东": "東",
	"髙": "高",
	"﨑": "崎",
	"嵜": "崎",
	"德": "徳",
	"邊": "辺",
	"邉": "辺",
	"塚": "塚",
	"ヶ": "ケ",
}

// Config holds the conversion tables of a Normalizer.
type Config struct {
	ChomeSuffix   string
	KanjiNumerals map[string]string
	Variants      map[string]string
}

// Normalizer canonicalizes place names. It is safe for concurrent use.
type Normalizer struct {
	suffix   string
	numerals map[string]string
	chomeRe  *regexp.Regexp
	variants *strings.Replacer
}

var defaultNormalizer = New(Config{})

// Default returns the normalizer built from the default tables.
func Default() *Normalizer {
	return defaultNormalizer
}

// Normalize canonicalizes name with the default tables.
func Normalize(name string) string {
	return defaultNormalizer.Normalize(name)
}

// New builds a Normalizer. Empty config fields fall back to the defaults.
func New(cfg Config) *Normalizer {
	suffix := cfg.ChomeSuffix
	if suffix == "" {
		suffix = DefaultChomeSuffix
	}
	numerals := cfg.KanjiNumerals
	if len(numerals) == 0 {
		numerals = DefaultKanjiNumerals
	}
	variants := cfg.Variants
	if variants == nil {
		variants = DefaultVariants
	}

	pairs := make([]string, 0, len(variants)*2)
	for from, to := range variants {
		if from == "" || from == to {
			continue
		}
		pairs = append(pairs, from, to)
	}

	return &Normalizer{
		suffix:   suffix,
		numerals: numerals,
		chomeRe:  regexp.MustCompile(`[0-9]+` + regexp.QuoteMeta(suffix)),
		variants: strings.NewReplacer(pairs...),
	}
}

var (
	spaceRemover = strings.NewReplacer("　", "", " ", "")
	fullDigits   = runes.Predicate(func(r rune) bool { return r >= '０' && r <= '９' })
)

// Normalize canonicalizes a place name:
//  1. Trimming surrounding whitespace
//  2. Removing full-width and half-width spaces
//  3. Narrowing full-width digits to ASCII, then folding variant glyphs
//  4. Converting chome numbers ("3丁目") to kanji ("三丁目")
//  5. Lowercasing
func (n *Normalizer) Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = spaceRemover.Replace(name)
	name = narrowDigits(name)
	name = n.variants.Replace(name)
	name = n.chomeToKanji(name)

	return strings.ToLower(name)
}

// narrowDigits converts ０–９ to 0–9 and leaves every other rune alone.
func narrowDigits(s string) string {
	t := runes.If(fullDigits, width.Narrow, nil)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if r >= '０' && r <= '９' {
				return '0' + (r - '０')
			}
			return r
		}, s)
	}
	return out
}

// chomeToKanji replaces each whole digit run preceding the chome suffix. Runs
// missing from the table (including zero-padded ones) are kept as they are.
func (n *Normalizer) chomeToKanji(s string) string {
	if !strings.Contains(s, n.suffix) {
		return s
	}
	return n.chomeRe.ReplaceAllStringFunc(s, func(m string) string {
		digits := strings.TrimSuffix(m, n.suffix)
		if kanji, ok := n.numerals[digits]; ok {
			return kanji + n.suffix
		}
		return m
	})
}
