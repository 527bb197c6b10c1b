package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestTruncateRunes(t *testing.T) {
	if TruncateRunes("abcdef", 3) != "abc" {
		t.Errorf("got %q", TruncateRunes("abcdef", 3))
	}
	if TruncateRunes("ab", 10) != "ab" {
		t.Error("short string unchanged")
	}
	if TruncateRunes("日本語テスト", 2) != "日本" {
		t.Errorf("got %q", TruncateRunes("日本語テスト", 2))
	}
	if TruncateRunes("abc", 0) != "" {
		t.Error("n 0 returns empty")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if CollapseWhitespace("  a \t b\n\nc ") != "a b c" {
		t.Errorf("got %q", CollapseWhitespace("  a \t b\n\nc "))
	}
	if CollapseWhitespace("") != "" {
		t.Error("empty unchanged")
	}
}
