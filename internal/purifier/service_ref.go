package purifier

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidServiceRef = errors.New("invalid service id: expected <domain>.<action>")

// ServiceRef names a hub service as a (domain, action) pair, e.g. input_boolean.toggle.
type ServiceRef struct {
	Domain string
	Action string
}

// ParseServiceRef splits s at the first dot. Both halves must be non-empty.
func ParseServiceRef(s string) (ServiceRef, error) {
	domain, action, found := strings.Cut(strings.TrimSpace(s), ".")
	domain, action = strings.TrimSpace(domain), strings.TrimSpace(action)
	if !found || domain == "" || action == "" {
		return ServiceRef{}, fmt.Errorf("%w: %q", ErrInvalidServiceRef, s)
	}
	return ServiceRef{Domain: domain, Action: action}, nil
}

func (r ServiceRef) String() string {
	return r.Domain + "." + r.Action
}

// IsZero reports whether the reference was never set.
func (r ServiceRef) IsZero() bool {
	return r.Domain == "" && r.Action == ""
}

// UnmarshalYAML validates the service id while the platform file is decoded.
func (r *ServiceRef) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: service must be a string: %w", value.Line, err)
	}
	ref, err := ParseServiceRef(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*r = ref
	return nil
}

// MarshalYAML writes the reference back as "domain.action".
func (r ServiceRef) MarshalYAML() (any, error) {
	return r.String(), nil
}
