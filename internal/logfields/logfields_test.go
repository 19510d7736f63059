package logfields

import (
	"errors"
	"testing"
	"time"
)

func TestHelpers(t *testing.T) {
	if a := DocID("2023-01-01-hello"); a.Key != KeyDocID || a.Value.String() != "2023-01-01-hello" {
		t.Fatalf("unexpected attr: %v", a)
	}
	if a := Stage("render_all"); a.Key != KeyStage {
		t.Fatalf("unexpected key: %s", a.Key)
	}
	if a := Count(3); a.Value.Int64() != 3 {
		t.Fatalf("unexpected count: %v", a.Value)
	}
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration: %v", a.Value)
	}
}

func TestError(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should produce empty value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error value: %q", a.Value.String())
	}
}
