// Package domain holds typed identifiers shared across verity packages.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "verity/pkg/domain-errors"
)

// ApplicationID identifies a KYC application.
type ApplicationID uuid.UUID

// DocumentID identifies a document submitted to an application.
type DocumentID uuid.UUID

// NewApplicationID returns a random application id.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewDocumentID returns a random document id.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) String() string    { return uuid.UUID(id).String() }
func (id DocumentID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// ParseApplicationID parses a client supplied application id.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application id")
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(u), nil
}

// ParseDocumentID parses a document id.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(u), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}

func (id ApplicationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ApplicationID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ApplicationID{}
		return nil
	}
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = ApplicationID(u)
	return nil
}

func (id DocumentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *DocumentID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = DocumentID{}
		return nil
	}
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = DocumentID(u)
	return nil
}
