package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func testSpinner(ctx context.Context, msg string) (*Spinner, *bytes.Buffer, *bytes.Buffer) {
	var anim, out bytes.Buffer
	return newSpinner(ctx, &anim, msg, printer{w: &out}), &anim, &out
}

func TestSpinnerDraws(t *testing.T) {
	s, anim, _ := testSpinner(context.Background(), "Composing pages...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(anim.String(), "Composing pages...") {
		t.Errorf("animation output = %q", anim.String())
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _, _ := testSpinner(context.Background(), "Rendering...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx, cancel
		}},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			defer cancel()
			s, _, _ := testSpinner(ctx, "Working...")
			s.Start()
			time.Sleep(100 * time.Millisecond)
			if !s.Cancelled() {
				t.Error("spinner should report cancellation")
			}
			s.Stop()
		})
	}
}

func TestSpinnerFinalMessages(t *testing.T) {
	tests := []struct {
		name string
		stop func(*Spinner)
		want string
	}{
		{"success", func(s *Spinner) { s.StopWithSuccess("Rendered 3 pages") }, iconSuccess + " Rendered 3 pages"},
		{"error", func(s *Spinner) { s.StopWithError("Render failed") }, iconError + " Render failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, anim, out := testSpinner(context.Background(), "Rendering...")
			s.Start()
			tt.stop(s)
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
			if strings.Contains(anim.String(), tt.want) {
				t.Error("final message should not go to the animation writer")
			}
		})
	}
}
