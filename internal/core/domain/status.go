package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatus is returned for a malformed status query string.
var ErrInvalidStatus = errors.New("invalid status format")

// StatusQuerySpec locates the property read once before watching starts.
type StatusQuerySpec struct {
	Service   string
	Path      string
	Interface string
	Property  string
}

// ParseStatus parses "service/path interface property".
//
// The first slash of the first token separates the service from the
// object path; the path keeps that slash as its leading character.
func ParseStatus(s string) (StatusQuerySpec, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return StatusQuerySpec{}, fmt.Errorf(
			"%w: expected \"service/path interface property\", got %d tokens",
			ErrInvalidStatus, len(fields),
		)
	}

	service, path, ok := strings.Cut(fields[0], "/")
	if !ok {
		return StatusQuerySpec{}, fmt.Errorf("%w: %q has no object path", ErrInvalidStatus, fields[0])
	}
	if service == "" {
		return StatusQuerySpec{}, fmt.Errorf("%w: %q has an empty service name", ErrInvalidStatus, fields[0])
	}

	return StatusQuerySpec{
		Service:   service,
		Path:      "/" + path,
		Interface: fields[1],
		Property:  fields[2],
	}, nil
}

func (s StatusQuerySpec) String() string {
	return fmt.Sprintf("%s%s %s %s", s.Service, s.Path, s.Interface, s.Property)
}
