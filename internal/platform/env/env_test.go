package env

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	if got := String("ENV_STRING_DOES_NOT_EXIST", "fallback"); got != "fallback" {
		t.Fatalf("String()=%q, want fallback", got)
	}
	t.Setenv("ENV_STRING_KEY", "value")
	if got := String("ENV_STRING_KEY", "fallback"); got != "value" {
		t.Fatalf("String()=%q, want value", got)
	}
}

func TestDuration(t *testing.T) {
	got, err := Duration("ENV_DURATION_DOES_NOT_EXIST", 5*time.Second)
	if err != nil || got != 5*time.Second {
		t.Fatalf("Duration()=%v err=%v, want default 5s", got, err)
	}

	t.Setenv("ENV_DURATION_KEY", "250ms")
	got, err = Duration("ENV_DURATION_KEY", 5*time.Second)
	if err != nil || got != 250*time.Millisecond {
		t.Fatalf("Duration()=%v err=%v, want 250ms", got, err)
	}

	t.Setenv("ENV_DURATION_BAD", "not-a-duration")
	if _, err := Duration("ENV_DURATION_BAD", 5*time.Second); err == nil {
		t.Fatal("Duration() expected parse error")
	}
}

func TestBool(t *testing.T) {
	got, err := Bool("ENV_BOOL_DOES_NOT_EXIST", true)
	if err != nil || !got {
		t.Fatalf("Bool()=%v err=%v, want default true", got, err)
	}

	t.Setenv("ENV_BOOL_KEY", "false")
	got, err = Bool("ENV_BOOL_KEY", true)
	if err != nil || got {
		t.Fatalf("Bool()=%v err=%v, want false", got, err)
	}

	t.Setenv("ENV_BOOL_BAD", "nope")
	if _, err := Bool("ENV_BOOL_BAD", false); err == nil {
		t.Fatal("Bool() expected parse error")
	}
}

func TestInt(t *testing.T) {
	got, err := Int("ENV_INT_DOES_NOT_EXIST", 42)
	if err != nil || got != 42 {
		t.Fatalf("Int()=%v err=%v, want default 42", got, err)
	}

	t.Setenv("ENV_INT_KEY", "7")
	got, err = Int("ENV_INT_KEY", 42)
	if err != nil || got != 7 {
		t.Fatalf("Int()=%v err=%v, want 7", got, err)
	}

	t.Setenv("ENV_INT_BAD", "nope")
	if _, err := Int("ENV_INT_BAD", 42); err == nil {
		t.Fatal("Int() expected parse error")
	}
}

func TestFloat(t *testing.T) {
	got, err := Float("ENV_FLOAT_DOES_NOT_EXIST", 0.8)
	if err != nil || got != 0.8 {
		t.Fatalf("Float()=%v err=%v, want default 0.8", got, err)
	}

	t.Setenv("ENV_FLOAT_KEY", "0.65")
	got, err = Float("ENV_FLOAT_KEY", 0.8)
	if err != nil || got != 0.65 {
		t.Fatalf("Float()=%v err=%v, want 0.65", got, err)
	}

	t.Setenv("ENV_FLOAT_BAD", "nope")
	if _, err := Float("ENV_FLOAT_BAD", 0.8); err == nil {
		t.Fatal("Float() expected parse error")
	}
}
