package ai

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1} `))
}

func TestDedupTags(t *testing.T) {
	assert.Equal(t, []string{"Cat", "pet", "cat"}, DedupTags([]string{" Cat", "pet", "cat", "", "pet "}))
	assert.Equal(t, []string{"Birthday", "personal_info"}, DedupTags([]string{"Birthday", "personal_info"}))
	assert.Equal(t, []string{}, DedupTags(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "", Truncate("", 5))

	cut := Truncate("天气怎么样今天", 3)
	assert.Equal(t, "天气怎...", cut)
	assert.True(t, utf8.ValidString(cut))
}
