package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reciperag/config"
	"reciperag/internal/domain"
)

func TestResolveConditions(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"both", []string{domain.ConditionZeroShot, domain.ConditionFewShotRAG}, false},
		{"zero_shot", []string{domain.ConditionZeroShot}, false},
		{"few_shot_RAG", []string{domain.ConditionFewShotRAG}, false},
		{"few_shot_rag", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		got, err := resolveConditions(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveConditions(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("resolveConditions(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("resolveConditions(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	l := newLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	if l.Enabled(ctx, slog.LevelInfo) {
		t.Error("warn logger should not enable info")
	}
	if !l.Enabled(ctx, slog.LevelWarn) {
		t.Error("warn logger should enable warn")
	}

	l = newLogger(config.LoggingConfig{Level: "bogus"})
	if !l.Enabled(ctx, slog.LevelInfo) || l.Enabled(ctx, slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}

func TestRangeString(t *testing.T) {
	lo, hi := 3, 9
	if got := rangeString(&lo, &hi); got != "3-9" {
		t.Errorf("rangeString = %q, want 3-9", got)
	}
	if got := rangeString(nil, nil); got != "n/a" {
		t.Errorf("rangeString(nil) = %q, want n/a", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}

	good := filepath.Join(dir, "good.env")
	if err := os.WriteFile(good, []byte("RECIPERAG_TEST_KEY=secret\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RECIPERAG_TEST_KEY", "")
	os.Unsetenv("RECIPERAG_TEST_KEY")
	if err := loadDotEnv(good); err != nil {
		t.Fatalf("loadDotEnv(good) error = %v", err)
	}
	if got := os.Getenv("RECIPERAG_TEST_KEY"); got != "secret" {
		t.Errorf("RECIPERAG_TEST_KEY = %q, want secret", got)
	}

	bad := filepath.Join(dir, "bad.env")
	if err := os.WriteFile(bad, []byte("BAD-KEY=1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadDotEnv(bad); err == nil {
		t.Error("malformed .env should return an error")
	}
}
