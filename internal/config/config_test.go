package config

import (
	"testing"
	"time"
)

func TestEnv(t *testing.T) {
	t.Setenv("KIOSK_TEST_STR", "value")
	if got := Env("KIOSK_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("Env = %q", got)
	}
	if got := Env("KIOSK_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("Env fallback = %q", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("KIOSK_TEST_INT", "42")
	if got := EnvInt("KIOSK_TEST_INT", 7); got != 42 {
		t.Fatalf("EnvInt = %d", got)
	}
	t.Setenv("KIOSK_TEST_BAD", "not-a-number")
	if got := EnvInt("KIOSK_TEST_BAD", 7); got != 7 {
		t.Fatalf("EnvInt with bad value = %d, want fallback", got)
	}
	if got := EnvInt("KIOSK_TEST_UNSET", 7); got != 7 {
		t.Fatalf("EnvInt fallback = %d", got)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("KIOSK_TEST_DUR", "1500ms")
	if got := EnvDuration("KIOSK_TEST_DUR", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("EnvDuration = %v", got)
	}
	t.Setenv("KIOSK_TEST_DUR_BAD", "soon")
	if got := EnvDuration("KIOSK_TEST_DUR_BAD", time.Second); got != time.Second {
		t.Fatalf("EnvDuration with bad value = %v, want fallback", got)
	}
}
