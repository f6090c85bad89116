package watch

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/vietddude/buswatch/internal/core/apperr"
)

func nest(v any, layers int) any {
	for i := 0; i < layers; i++ {
		v = dbus.MakeVariant(v)
	}
	return v
}

func TestExtract_DirectBoolean(t *testing.T) {
	for _, want := range []bool{true, false} {
		got, err := Extract([]any{want})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestExtract_NestedVariants(t *testing.T) {
	for layers := 0; layers <= maxVariantDepth; layers++ {
		for _, want := range []bool{true, false} {
			got, err := Extract([]any{nest(want, layers)})
			if err != nil {
				t.Fatalf("%d layers: unexpected error: %v", layers, err)
			}
			if got != want {
				t.Errorf("%d layers: expected %v, got %v", layers, want, got)
			}
		}
	}
}

func TestExtract_UsesFirstArgument(t *testing.T) {
	got, err := Extract([]any{true, "extra", uint32(7)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected true")
	}
}

func TestExtract_Unprocessable(t *testing.T) {
	tests := []struct {
		name string
		body []any
	}{
		{"empty body", nil},
		{"string", []any{"yes"}},
		{"integer", []any{int32(1)}},
		{"variant of string", []any{dbus.MakeVariant("on")}},
		{"deep variant of map", []any{nest(map[string]dbus.Variant{}, 3)}},
		{"too deep", []any{nest(true, maxVariantDepth+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.body)
			var classified *apperr.Error
			if !errors.As(err, &classified) {
				t.Fatalf("expected classified error, got %v", err)
			}
			if classified.Kind != apperr.UnprocessableEntity {
				t.Errorf("expected UnprocessableEntity, got %v", classified.Kind)
			}
		})
	}
}

func TestExtractValue(t *testing.T) {
	v := dbus.MakeVariant(dbus.MakeVariant(true))
	got, err := ExtractValue(v)
	if err != nil || !got {
		t.Errorf("expected true, got %v, %v", got, err)
	}

	got, err = ExtractValue(&v)
	if err != nil || !got {
		t.Errorf("expected true from pointer, got %v, %v", got, err)
	}

	var nilVariant *dbus.Variant
	if _, err := ExtractValue(nilVariant); apperr.KindOf(err) != apperr.UnprocessableEntity {
		t.Errorf("expected UnprocessableEntity for nil variant, got %v", err)
	}
}
