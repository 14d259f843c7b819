package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Normalize("　　"))
}

func TestNormalize_StripSpaces(t *testing.T) {
	assert.Equal(t, "東大阪市", Normalize("  東大阪市 "))
	assert.Equal(t, "東大阪市", Normalize("東大阪　市"))
	assert.Equal(t, "大東市北条", Normalize("大東市 北条"))
}

func TestNormalize_FullWidthDigits(t *testing.T) {
	assert.Equal(t, "第2区", Normalize("第２区"))
	assert.Equal(t, "荒本北一丁目", Normalize("荒本北１丁目"))
}

func TestNormalize_WidthOnlyForDigits(t *testing.T) {
	// Katakana and full-width punctuation keep their width.
	assert.Equal(t, "カタカナ～", Normalize("カタカナ～"))
}

func TestNormalize_ChomeBoundaries(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1丁目", "一丁目"},
		{"12丁目", "十二丁目"},
		{"20丁目", "二十丁目"},
		{"0丁目", "零丁目"},
		{"１０丁目", "十丁目"},
		{"新町3丁目", "新町三丁目"},
		{"三丁目", "三丁目"},
		{"21丁目", "21丁目"},
		{"03丁目", "03丁目"},
		{"3番地", "3番地"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Variants(t *testing.T) {
	assert.Equal(t, "東大阪市", Normalize("东大阪市"))
	assert.Equal(t, "高井田", Normalize("髙井田"))
	assert.Equal(t, "霞ケ丘", Normalize("霞ヶ丘"))
}

func TestNormalize_Lowercase(t *testing.T) {
	assert.Equal(t, "abc町", Normalize("ABC町"))
	assert.Equal(t, "ａｂｃ", Normalize("ＡＢＣ"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		" 东大阪市　荒本北１２丁目 ",
		"大東市 北条２０丁目",
		"21丁目",
		"ABC町3丁目",
		"ＡＢＣ１丁目",
		"霞ヶ丘",
		"0丁目",
		"丁目",
		"1丁目1丁目",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNew_CustomTables(t *testing.T) {
	n := New(Config{
		ChomeSuffix:   "番町",
		KanjiNumerals: map[string]string{"2": "二"},
		Variants:      map[string]string{},
	})

	assert.Equal(t, "二番町", n.Normalize("2番町"))
	assert.Equal(t, "3番町", n.Normalize("3番町"))
	assert.Equal(t, "2丁目", n.Normalize("2丁目"))
	// Empty variant table disables folding.
	assert.Equal(t, "东", n.Normalize("东"))
}
