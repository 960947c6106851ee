package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "demo", want: "demo"},
		{in: " My_App-2 ", want: "my_app-2"},
		{in: "", wantErr: true},
		{in: "has space", wantErr: true},
		{in: "dots.not.allowed", wantErr: true},
		{in: "émoji", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeSlug(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateLanguageCode(t *testing.T) {
	for _, ok := range []string{"en", "fr", "en_us", "en-US", "zh-Hant-TW", "fil"} {
		_, err := validateLanguageCode(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", "e", "english", "en_", "en us", "12"} {
		_, err := validateLanguageCode(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestValidateKeyName(t *testing.T) {
	for _, ok := range []string{"greeting", "menu.file.open", "errors.404", "a-b_c"} {
		assert.NoError(t, validateKeyName(ok), ok)
	}
	for _, bad := range []string{"", "  ", " padded", "a..b", ".lead", "trail.", "tab\there", strings.Repeat("k", 256), "bad\xffutf8"} {
		assert.ErrorIs(t, validateKeyName(bad), ErrInvalid, bad)
	}

	// 255 multi-byte runes fit; the limit counts characters, not bytes.
	assert.NoError(t, validateKeyName(strings.Repeat("é", maxKeyNameLength)))

	err := validateKeyName(strings.Repeat("é", maxKeyNameLength+1))
	require.ErrorIs(t, err, ErrInvalid)
	assert.True(t, utf8.ValidString(err.Error()), "message must not split a rune: %q", err.Error())
	assert.Contains(t, err.Error(), strings.Repeat("é", 32)+"...")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.Equal(t, "short", truncateRunes("short", 32))
}

func TestNormalizeDescription(t *testing.T) {
	assert.Nil(t, normalizeDescription(nil))
	assert.Nil(t, normalizeDescription(strPtr("   ")))
	assert.Equal(t, "Shown on the home page", *normalizeDescription(strPtr(" Shown on the home page ")))
}
