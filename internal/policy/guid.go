package policy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teranos/pinvokegen/errors"
)

// ParseGUID accepts the forms front-ends print for __declspec(uuid(...)):
// bare, braced, or urn-prefixed
func ParseGUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "invalid GUID %q", s)
	}
	return id, nil
}

// FormatGUID renders the canonical upper-case spelling used in [Guid(...)]
func FormatGUID(id uuid.UUID) string {
	return strings.ToUpper(id.String())
}

// GUIDConstructorArgs renders the arguments of new Guid(uint, ushort, ushort,
// byte x8) for id
func GUIDConstructorArgs(id uuid.UUID) string {
	b := id[:]
	parts := []string{
		fmt.Sprintf("0x%02X%02X%02X%02X", b[0], b[1], b[2], b[3]),
		fmt.Sprintf("0x%02X%02X", b[4], b[5]),
		fmt.Sprintf("0x%02X%02X", b[6], b[7]),
	}
	for _, v := range b[8:] {
		parts = append(parts, fmt.Sprintf("0x%02X", v))
	}
	return strings.Join(parts, ", ")
}
