package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidEntry is returned when entry data fails type or enum checks
var ErrInvalidEntry = errors.New("invalid entry")

// EntryType is the kind of entrance an Entry records
type EntryType string

const (
	EntryTypeResident EntryType = "resident"
	EntryTypeGuest    EntryType = "guest"
	EntryTypeDelivery EntryType = "delivery"
	EntryTypeBurglar  EntryType = "burglar"
)

// EntryTypes lists every accepted entry type
var EntryTypes = []EntryType{
	EntryTypeResident,
	EntryTypeGuest,
	EntryTypeDelivery,
	EntryTypeBurglar,
}

// IsValid reports whether t is one of the accepted entry types
func (t EntryType) IsValid() bool {
	for _, known := range EntryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Entry is a single entrance event in the log.
//
// Fields outside the documented schema may be written through an update;
// they are kept in Extra and serialized next to the known fields.
type Entry struct {
	ID          string         `json:"_id"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	ImageURL    string         `json:"imageURL,omitempty"`
	Date        int64          `json:"date"`
	TypeOfEnter EntryType      `json:"typeOfEnter"`
	Tags        []string       `json:"tags"`
	ResidentID  string         `json:"residentId,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Field names as they appear in the JSON documents
const (
	FieldID          = "_id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldImageURL    = "imageURL"
	FieldDate        = "date"
	FieldTypeOfEnter = "typeOfEnter"
	FieldTags        = "tags"
	FieldResidentID  = "residentId"
)

// NewEntryID returns a fresh identifier in ObjectID hex form
func NewEntryID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidEntryID reports whether id has the shape of an entry identifier
func IsValidEntryID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// Timestamp converts t to the millisecond representation stored in Date
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// Validate checks the invariants every stored entry must satisfy
func (e *Entry) Validate() error {
	if !e.TypeOfEnter.IsValid() {
		return fmt.Errorf("%w: typeOfEnter %q is not one of %v", ErrInvalidEntry, e.TypeOfEnter, EntryTypes)
	}
	if e.ResidentID != "" && !IsValidEntryID(e.ResidentID) {
		return fmt.Errorf("%w: residentId %q is not a valid object id", ErrInvalidEntry, e.ResidentID)
	}
	return nil
}

// ApplyPatch overwrites the fields present in patch and validates the result.
// Identifier keys are ignored and JSON null clears a field. The entry is left
// unchanged when an error is returned.
func (e *Entry) ApplyPatch(patch map[string]json.RawMessage) error {
	updated := e.clone()
	for key, raw := range patch {
		if key == FieldID || key == "id" {
			continue
		}
		if err := updated.setField(key, raw); err != nil {
			return err
		}
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*e = *updated
	return nil
}

// MarshalJSON writes the known fields followed by any extra fields
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	p := plain(e)
	if p.Tags == nil {
		p.Tags = []string{}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return data, nil
	}

	extra, err := json.Marshal(e.Extra)
	if err != nil {
		return nil, err
	}
	// Both are non-empty objects: splice "{...known}" and "{...extra}"
	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	buf.WriteByte(',')
	buf.Write(extra[1:])
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a full entry document, keeping unknown fields in Extra
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	decoded := Entry{}
	for key, raw := range fields {
		if key == FieldID {
			if err := decodeString(raw, &decoded.ID); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
			}
			continue
		}
		if err := decoded.setField(key, raw); err != nil {
			return err
		}
	}
	*e = decoded
	return nil
}

func (e *Entry) clone() *Entry {
	c := *e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	if e.Extra != nil {
		c.Extra = make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

func (e *Entry) setField(key string, raw json.RawMessage) error {
	var err error
	switch key {
	case FieldName:
		err = decodeString(raw, &e.Name)
	case FieldDescription:
		err = decodeString(raw, &e.Description)
	case FieldImageURL:
		err = decodeString(raw, &e.ImageURL)
	case FieldResidentID:
		err = decodeString(raw, &e.ResidentID)
	case FieldTypeOfEnter:
		var s string
		err = decodeString(raw, &s)
		e.TypeOfEnter = EntryType(s)
	case FieldDate:
		e.Date = 0
		if !isNull(raw) {
			err = json.Unmarshal(raw, &e.Date)
		}
	case FieldTags:
		e.Tags = nil
		if !isNull(raw) {
			err = json.Unmarshal(raw, &e.Tags)
		}
	default:
		var v any
		if v, err = decodeValue(raw); err == nil {
			if e.Extra == nil {
				e.Extra = make(map[string]any)
			}
			e.Extra[key] = v
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
	}
	return nil
}

// decodeValue keeps numbers as json.Number so integers beyond float64
// precision are written back unchanged
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after value")
	}
	return v, nil
}

func decodeString(raw json.RawMessage, dst *string) error {
	if isNull(raw) {
		*dst = ""
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
