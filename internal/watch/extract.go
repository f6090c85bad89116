package watch

import (
	"github.com/godbus/dbus/v5"

	"github.com/vietddude/buswatch/internal/core/apperr"
)

// maxVariantDepth bounds variant unwrapping on adversarial payloads.
const maxVariantDepth = 16

// Extract decodes the boolean carried by the first argument of a signal body.
func Extract(body []any) (bool, error) {
	if len(body) == 0 {
		return false, apperr.New(apperr.UnprocessableEntity, "empty message body")
	}

	// Fast path for well-typed signals. Variants go through ExtractValue so
	// the depth bound applies.
	if _, isVariant := body[0].(dbus.Variant); !isVariant {
		var b bool
		if err := dbus.Store(body[:1], &b); err == nil {
			return b, nil
		}
	}

	return ExtractValue(body[0])
}

// ExtractValue unwraps nested variants until it reaches a boolean.
func ExtractValue(v any) (bool, error) {
	current := v
	for depth := 0; depth <= maxVariantDepth; depth++ {
		switch val := current.(type) {
		case bool:
			return val, nil
		case dbus.Variant:
			current = val.Value()
		case *dbus.Variant:
			if val == nil {
				return false, apperr.New(apperr.UnprocessableEntity, "nil variant")
			}
			current = val.Value()
		default:
			return false, apperr.New(apperr.UnprocessableEntity,
				"unsupported value %T: %v", current, current)
		}
	}
	return false, apperr.New(apperr.UnprocessableEntity,
		"value nested deeper than %d variants", maxVariantDepth)
}
