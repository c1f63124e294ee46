package config

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))
	t.Setenv("HMAC_KEY", "test-hmac-key")
	t.Setenv("JWT_ACCESS_SECRET", strings.Repeat("a", 32))
	t.Setenv("JWT_REFRESH_SECRET", strings.Repeat("b", 32))
	t.Setenv("DATABASE_URL", "postgres://localhost/attendance_test")
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.SessionTTL)
	}
	if cfg.ProximityRadiusMeters != 1000 {
		t.Fatalf("unexpected radius %v", cfg.ProximityRadiusMeters)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
}

func TestLoadFailsWithoutEncryptionKey(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ENCRYPTION_KEY", "")
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error without encryption key")
	}
}

func TestLoadFailsWithShortKey(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(make([]byte, 16)))
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for 16-byte key")
	}
}

func TestLoadFailsOnBadBase64(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ENCRYPTION_KEY", "%%%not-base64%%%")
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("PROXIMITY_RADIUS_METERS", "250")
	t.Setenv("SCAN_RATE_LIMIT_RPM", "120")
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 45*time.Minute {
		t.Fatalf("unexpected ttl %v", cfg.SessionTTL)
	}
	if cfg.ProximityRadiusMeters != 250 {
		t.Fatalf("unexpected radius %v", cfg.ProximityRadiusMeters)
	}
	if cfg.ScanRateLimitRPM != 120 {
		t.Fatalf("unexpected scan rpm %d", cfg.ScanRateLimitRPM)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESSION_TTL", "not-a-duration")
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadEnvFileMissingIsNoop(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestLoadEnvFilePreservesExisting(t *testing.T) {
	t.Setenv("EXISTING_KEY", "from-env")
	file := filepath.Join(t.TempDir(), "test.env")
	content := "# comment\nEXISTING_KEY=from-file\nNEW_KEY=hello\nQUOTED=\"x\"\nINVALID_LINE\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	if err := LoadEnvFile(file); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("EXISTING_KEY"); got != "from-env" {
		t.Fatalf("expected existing var to be preserved, got %q", got)
	}
	if got := os.Getenv("NEW_KEY"); got != "hello" {
		t.Fatalf("unexpected NEW_KEY=%q", got)
	}
	if got := os.Getenv("QUOTED"); got != "x" {
		t.Fatalf("unexpected QUOTED=%q", got)
	}
}
