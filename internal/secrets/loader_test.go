package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty key: %v", err)
	}

	t.Setenv("CAREER_MATCHER_TEST_KEY", " from-env ")
	t.Setenv("CAREER_MATCHER_TEST_UNSET", "")

	tests := []struct {
		name   string
		src    Source
		expect string
		errMsg string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "CAREER_MATCHER_TEST_KEY"}, expect: "from-file"},
		{name: "value over env", src: Source{Value: " inline ", Env: "CAREER_MATCHER_TEST_KEY"}, expect: "inline"},
		{name: "env fallback", src: Source{Env: "CAREER_MATCHER_TEST_KEY"}, expect: "from-env"},
		{name: "missing file", src: Source{Name: "api key", File: filepath.Join(dir, "nope")}, errMsg: "reading api key from file"},
		{name: "empty file", src: Source{File: emptyFile}, errMsg: "is empty"},
		{name: "empty env", src: Source{Name: "api key", Env: "CAREER_MATCHER_TEST_UNSET"}, errMsg: "CAREER_MATCHER_TEST_UNSET is empty"},
		{name: "nothing", src: Source{}, errMsg: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Fatalf("expected error containing %q, got %v", tt.errMsg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
