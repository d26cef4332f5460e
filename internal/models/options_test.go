package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgrammingLanguageExtensionsAreExhaustive(t *testing.T) {
	seen := map[string]bool{}
	for _, l := range ProgrammingLanguages {
		ext := l.Extension()
		assert.NotEqual(t, "txt", ext, "no extension for %s", l)
		assert.False(t, seen[ext], "duplicate extension %s", ext)
		seen[ext] = true
	}
	assert.Equal(t, "txt", ProgrammingLanguage("COBOL").Extension())
}

func TestLanguageCodesAreExhaustive(t *testing.T) {
	for _, l := range Languages {
		assert.Len(t, l.Code(), 2, "code for %s", l)
	}
	assert.NotEqual(t, DefaultSourceLanguage, DefaultTargetLanguage)
}

func TestParseLength(t *testing.T) {
	for _, in := range []string{"Short", "short", "Short (100-200 words)", " SHORT "} {
		l, err := ParseLength(in)
		require.NoError(t, err, in)
		assert.Equal(t, LengthShort, l)
	}

	l, err := ParseLength("")
	require.NoError(t, err)
	assert.Equal(t, LengthShort, l)

	_, err = ParseLength("Epic")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestParseOptions(t *testing.T) {
	ct, err := ParseContentType("blog post")
	require.NoError(t, err)
	assert.Equal(t, ContentBlogPost, ct)

	lang, err := ParseLanguage("", DefaultTargetLanguage)
	require.NoError(t, err)
	assert.Equal(t, Spanish, lang)

	pl, err := ParseProgrammingLanguage("c++")
	require.NoError(t, err)
	assert.Equal(t, CPP, pl)

	_, err = ParseTone("Grumpy")
	assert.ErrorIs(t, err, ErrUnknownOption)

	_, err = ParseExplanationLevel("Expert")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestCountTurns(t *testing.T) {
	c := CountTurns([]Turn{{Role: RoleUser}, {Role: RoleAssistant}, {Role: RoleUser}})
	assert.Equal(t, Counts{Total: 3, User: 2, Assistant: 1}, c)
	assert.Equal(t, Counts{}, CountTurns(nil))
}
