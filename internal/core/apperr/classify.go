package apperr

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Substrings of the bus library's error text that mean the remote end is
// missing rather than the connection being broken. The bus protocol offers
// nothing more structured than these names.
var unavailableMarkers = []string{
	"not found",
	"NotFound",
	"ServiceUnknown",
	"UnknownObject",
	"UnknownInterface",
	"service does not exist",
	"No such service",
}

var unavailableErrorNames = []string{
	"ServiceUnknown",
	"UnknownObject",
	"UnknownInterface",
}

var registrationMarkers = []string{
	"not found",
	"ServiceUnknown",
	"UnknownObject",
	"UnknownInterface",
}

// Classify maps a raw bus failure to a classified error. Errors that are
// already classified are returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	name, isMethodErr := methodErrorName(err)
	if isMethodErr && strings.Contains(name, "NotFound") {
		return Wrap(NotFound, err, "D-Bus method not found")
	}

	if errors.Is(err, ErrInterfaceNotFound) {
		return Wrap(ServiceUnavailable, err, "D-Bus interface not found")
	}
	if isMethodErr && containsAny(name, unavailableErrorNames) {
		return Wrap(ServiceUnavailable, err, "D-Bus service not available")
	}
	if containsAny(err.Error(), unavailableMarkers) {
		return Wrap(ServiceUnavailable, err, "D-Bus service not available")
	}

	return Wrap(BadGateway, err, "D-Bus connection error")
}

// ClassifyRegistration classifies a failure to register a match rule.
// A missing target is ServiceUnavailable whether the marker shows up in the
// method error name or in its text; anything else goes through Classify.
func ClassifyRegistration(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	name, isMethodErr := methodErrorName(err)
	if (isMethodErr && containsAny(name, registrationMarkers)) || containsAny(err.Error(), registrationMarkers) {
		return Wrap(ServiceUnavailable, err, "D-Bus match rule target not available")
	}
	return Classify(err)
}

func methodErrorName(err error) (string, bool) {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name, true
	}
	var ptr *dbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name, true
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
