package domain

import (
	"github.com/google/uuid"

	dErrors "subvene/pkg/domain-errors"
)

// Typed entity IDs. Distinct types keep a producer ID from ever being passed
// where a subsidy ID is expected; the compiler enforces it.
type (
	SubsidyID    uuid.UUID
	SubmissionID uuid.UUID
	GovernmentID uuid.UUID
	ProducerID   uuid.UUID
	AuditorID    uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseSubsidyID validates and returns a SubsidyID.
func ParseSubsidyID(s string) (SubsidyID, error) {
	u, err := parseUUID(s)
	return SubsidyID(u), err
}

// ParseSubmissionID validates and returns a SubmissionID.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID(s)
	return SubmissionID(u), err
}

// ParseGovernmentID validates and returns a GovernmentID.
func ParseGovernmentID(s string) (GovernmentID, error) {
	u, err := parseUUID(s)
	return GovernmentID(u), err
}

// ParseProducerID validates and returns a ProducerID.
func ParseProducerID(s string) (ProducerID, error) {
	u, err := parseUUID(s)
	return ProducerID(u), err
}

// ParseAuditorID validates and returns an AuditorID.
func ParseAuditorID(s string) (AuditorID, error) {
	u, err := parseUUID(s)
	return AuditorID(u), err
}

func (id SubsidyID) String() string    { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id GovernmentID) String() string { return uuid.UUID(id).String() }
func (id ProducerID) String() string   { return uuid.UUID(id).String() }
func (id AuditorID) String() string    { return uuid.UUID(id).String() }

func (id SubsidyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id GovernmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProducerID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id AuditorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// The IDs serialize as their canonical UUID strings, not as byte arrays.
func (id SubsidyID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id SubmissionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id GovernmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ProducerID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id AuditorID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *SubsidyID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubsidyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubmissionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubmissionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *GovernmentID) UnmarshalText(b []byte) error {
	parsed, err := ParseGovernmentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ProducerID) UnmarshalText(b []byte) error {
	parsed, err := ParseProducerID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AuditorID) UnmarshalText(b []byte) error {
	parsed, err := ParseAuditorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewSubsidyID returns a fresh random SubsidyID.
func NewSubsidyID() SubsidyID { return SubsidyID(uuid.New()) }

// NewSubmissionID returns a fresh random SubmissionID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// NewGovernmentID returns a fresh random GovernmentID.
func NewGovernmentID() GovernmentID { return GovernmentID(uuid.New()) }

// NewProducerID returns a fresh random ProducerID.
func NewProducerID() ProducerID { return ProducerID(uuid.New()) }

// NewAuditorID returns a fresh random AuditorID.
func NewAuditorID() AuditorID { return AuditorID(uuid.New()) }
