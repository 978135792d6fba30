package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuizQuestions_PlainArray(t *testing.T) {
	raw := `[{"question":"2+2?","options":["3","4","5","6"],"answer":"4"}]`

	questions, err := parseQuizQuestions(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "2+2?", questions[0].Question)
	assert.Equal(t, "4", questions[0].Answer)
}

func TestParseQuizQuestions_CodeFencedArray(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"question\":\"q\",\"options\":[\"a\",\"b\"],\"answer\":\"a\"}]\n```"

	questions, err := parseQuizQuestions(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)
}

func TestParseQuizQuestions_RejectsNonArrayOutput(t *testing.T) {
	_, err := parseQuizQuestions("Sorry, I cannot do that.")
	assert.Error(t, err)

	_, err = parseQuizQuestions("[]")
	assert.Error(t, err)
}
