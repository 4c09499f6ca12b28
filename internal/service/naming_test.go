package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sanitized = regexp.MustCompile(`^[a-z0-9-]*$`)

func TestConvertTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My App", "my-app"},
		{"my-app", "my-app"},
		{"WordPress Blog", "wordpress-blog"},
		{"Blog_v2.0!", "blogv20"},
		{"hello, world.", "hello-world"},
		{"日本語 app", "-app"},
		{"", ""},
		{"!@#$%^&*()", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvertTitle(tt.in), tt.in)
	}
}

func TestConvertTitle_IdempotentAndSanitized(t *testing.T) {
	inputs := []string{
		"My App", "  spaced  out  ", "UPPER_lower-123", "tab\tand\nnewline",
		"ünïcödé", "a--b", "-leading", "trailing-", "emoji 🚀 rocket",
	}
	for _, in := range inputs {
		once := ConvertTitle(in)
		assert.Regexp(t, sanitized, once, in)
		assert.Equal(t, once, ConvertTitle(once), in)
	}
}

func TestGenerateRandomString(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		s := GenerateRandomString()
		assert.Len(t, s, 6)
		assert.Regexp(t, `^[a-z]{6}$`, s)
		seen[s] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGenerateDomain(t *testing.T) {
	assert.Regexp(t, `^my-app-[a-z]{6}$`, GenerateDomain("my-app"))
	assert.Regexp(t, `^[a-z]{6}$`, GenerateDomain(""))
}
