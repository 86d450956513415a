package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	return path
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("CV_EVALUATOR_TEST_SECRET", "from-env")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{
			name:   "file wins",
			src:    Source{File: writeSecret(t, " from-file\n"), Value: "inline", Env: "CV_EVALUATOR_TEST_SECRET"},
			expect: "from-file",
		},
		{
			name:   "value before env",
			src:    Source{Value: "  inline ", Env: "CV_EVALUATOR_TEST_SECRET"},
			expect: "inline",
		},
		{
			name:   "env fallback",
			src:    Source{Env: "CV_EVALUATOR_TEST_SECRET"},
			expect: "from-env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("CV_EVALUATOR_EMPTY_SECRET", "")

	tests := []struct {
		name    string
		src     Source
		message string
	}{
		{name: "nothing configured", src: Source{Name: "token"}, message: "token is not configured"},
		{name: "empty file", src: Source{Name: "token", File: writeSecret(t, "  \n")}, message: "is empty"},
		{name: "missing file", src: Source{Name: "token", File: filepath.Join(t.TempDir(), "absent")}, message: "reading token from file"},
		{name: "empty env", src: Source{Env: "CV_EVALUATOR_EMPTY_SECRET"}, message: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("expected error containing %q, got %v", tt.message, err)
			}
		})
	}
}

func TestConfigured(t *testing.T) {
	t.Setenv("CV_EVALUATOR_SET_SECRET", "x")

	if (Source{}).Configured() {
		t.Fatal("empty source must not be configured")
	}
	if !(Source{Env: "CV_EVALUATOR_SET_SECRET"}).Configured() {
		t.Fatal("expected env source to be configured")
	}
	if !(Source{File: "/some/path"}).Configured() {
		t.Fatal("expected file source to be configured")
	}
}
