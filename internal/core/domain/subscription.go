package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Limits from the D-Bus specification.
const maxNameLength = 255

var (
	ErrInvalidInterface = errors.New("invalid interface name")
	ErrInvalidMember    = errors.New("invalid member name")
)

var (
	nameElement = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// SubscriptionSpec identifies the signal being watched.
type SubscriptionSpec struct {
	Interface string
	Member    string
}

// Validate checks both names against the D-Bus naming rules.
func (s SubscriptionSpec) Validate() error {
	if err := ValidateInterfaceName(s.Interface); err != nil {
		return err
	}
	return ValidateMemberName(s.Member)
}

// MatchRule returns the bus match rule for the subscription.
func (s SubscriptionSpec) MatchRule() MatchRule {
	return MatchRule{
		Type:      MessageTypeSignal,
		Interface: s.Interface,
		Member:    s.Member,
	}
}

// MessageType is the D-Bus message type a match rule selects.
type MessageType string

const MessageTypeSignal MessageType = "signal"

// MatchRule selects messages by exact type, interface and member.
type MatchRule struct {
	Type      MessageType
	Interface string
	Member    string
}

// String renders the rule in bus AddMatch syntax.
func (r MatchRule) String() string {
	return fmt.Sprintf("type='%s',interface='%s',member='%s'", r.Type, r.Interface, r.Member)
}

// Matches reports whether a message with the given interface and member is selected.
func (r MatchRule) Matches(iface, member string) bool {
	return r.Interface == iface && r.Member == member
}

// ValidateInterfaceName checks a D-Bus interface name: two or more
// dot-separated elements, none starting with a digit.
func ValidateInterfaceName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidInterface, name)
	}
	elements := strings.Split(name, ".")
	if len(elements) < 2 {
		return fmt.Errorf("%w: %q must contain at least two elements", ErrInvalidInterface, name)
	}
	for _, el := range elements {
		if !nameElement.MatchString(el) {
			return fmt.Errorf("%w: %q", ErrInvalidInterface, name)
		}
	}
	return nil
}

// ValidateMemberName checks a D-Bus member name.
func ValidateMemberName(name string) error {
	if len(name) > maxNameLength || !nameElement.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidMember, name)
	}
	return nil
}
