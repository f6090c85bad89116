package emitter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/core/domain"
)

// flushRecorder records the buffer content visible after each write.
type flushRecorder struct {
	writes []string
}

func (r *flushRecorder) Write(p []byte) (int, error) {
	r.writes = append(r.writes, string(p))
	return len(p), nil
}

func TestEmitValue_Text(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf, FormatText)
	mapping := domain.OutputMapping{True: "on", False: "off"}

	if err := e.EmitValue(true, mapping); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.EmitValue(false, mapping); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := buf.String(); got != "on\noff\n" {
		t.Errorf("expected \"on\\noff\\n\", got %q", got)
	}
}

func TestEmitValue_JSON(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf, FormatJSON)
	mapping := domain.OutputMapping{True: "on", False: "off"}

	_ = e.EmitValue(true, mapping)
	_ = e.EmitValue(false, mapping)

	want := `{"text":"on","tooltip":"enabled"}` + "\n" + `{"text":"off","tooltip":"disabled"}` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEmitValue_FlushesEachLine(t *testing.T) {
	rec := &flushRecorder{}
	e := New(rec, FormatText)

	_ = e.EmitValue(true, domain.DefaultOutputMapping())
	if len(rec.writes) != 1 || rec.writes[0] != "true\n" {
		t.Fatalf("expected line to be flushed immediately, got %q", rec.writes)
	}

	_ = e.EmitValue(false, domain.DefaultOutputMapping())
	if len(rec.writes) != 2 || rec.writes[1] != "false\n" {
		t.Fatalf("expected second line to be flushed immediately, got %q", rec.writes)
	}
}

func TestEmitFatal(t *testing.T) {
	tests := []struct {
		err      error
		wantLine string
		wantCode int
	}{
		{apperr.New(apperr.BadGateway, "down"), "E502\n", 502},
		{apperr.New(apperr.ServiceUnavailable, "gone"), "E503\n", 503},
		{apperr.New(apperr.NotFound, "bad status"), "E404\n", 404},
		{apperr.New(apperr.UnprocessableEntity, "bad payload"), "E422\n", 422},
		{errors.New("connection reset by peer"), "E502\n", 502},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		code := New(&buf, FormatJSON).EmitFatal(tt.err)
		if got := buf.String(); got != tt.wantLine {
			t.Errorf("%v: expected line %q, got %q", tt.err, tt.wantLine, got)
		}
		if code != tt.wantCode {
			t.Errorf("%v: expected code %d, got %d", tt.err, tt.wantCode, code)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("expected json format, got %q, %v", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("expected text format, got %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
