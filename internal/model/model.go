// Package model holds the internal representations of a contact: the
// flattened row as stored in the contacts table and the pointer-based
// input shape used to validate client submissions.
package model

import (
	"encoding/json"
	"time"
)

// ContactRow is the flattened database form of a contact. The nested
// address and picture objects of the wire form are expanded into
// individually named columns. CreatedAt and UpdatedAt are maintained by
// the database and never taken from client input.
type ContactRow struct {
	Id               int64     `db:"id"`
	FullName         string    `db:"full_name"`
	Email            string    `db:"email"`
	Phone            *string   `db:"phone"`
	Cell             *string   `db:"cell"`
	RegisteredDate   string    `db:"registered_date"`
	Age              *int64    `db:"age"`
	StreetNumber     int64     `db:"street_number"`
	StreetName       string    `db:"street_name"`
	City             *string   `db:"city"`
	Country          *string   `db:"country"`
	PictureLarge     string    `db:"picture_large"`
	PictureMedium    string    `db:"picture_medium"`
	PictureThumbnail string    `db:"picture_thumbnail"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// StreetInput mirrors the street object of a submission with pointer
// fields so that absent and empty values can be told apart.
type StreetInput struct {
	Number *int64  `json:"number"`
	Name   *string `json:"name"`
}

// AddressInput mirrors the address object of a submission.
type AddressInput struct {
	Street  *StreetInput `json:"street"`
	City    *string      `json:"city"`
	Country *string      `json:"country"`
}

// PictureInput mirrors the picture object of a submission.
type PictureInput struct {
	Large     *string `json:"large"`
	Medium    *string `json:"medium"`
	Thumbnail *string `json:"thumbnail"`
}

// ContactInput is a contact as submitted by a client. The registered date
// is kept as raw JSON because clients may send it either as a string or as
// an epoch-milliseconds number; the mapper resolves the union.
type ContactInput struct {
	FullName       *string         `json:"fullName"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Cell           *string         `json:"cell"`
	RegisteredDate json.RawMessage `json:"registeredDate"`
	Age            *int64          `json:"age"`
	Address        *AddressInput   `json:"address"`
	Picture        *PictureInput   `json:"picture"`
}

// ValidationError describes why a submitted contact was rejected. Received
// optionally echoes the offending raw input back to the client.
type ValidationError struct {
	Message  string
	Received string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the required fields of a submission in a fixed order and
// returns the first violation found, or nil. Parsing the registered date
// is left to the mapper, which resolves the string-or-number union at the
// same time.
func (in *ContactInput) Validate() *ValidationError {
	if in.FullName == nil || *in.FullName == "" {
		return &ValidationError{Message: "fullName is required"}
	}
	if in.Email == nil || *in.Email == "" {
		return &ValidationError{Message: "email is required"}
	}
	if in.Address == nil {
		return &ValidationError{Message: "address is required"}
	}
	if in.Picture == nil {
		return &ValidationError{Message: "picture is required"}
	}
	if in.Address.Street == nil || in.Address.Street.Number == nil || in.Address.Street.Name == nil {
		return &ValidationError{Message: "address.street must include number and name"}
	}
	if in.Picture.Large == nil || in.Picture.Medium == nil || in.Picture.Thumbnail == nil {
		return &ValidationError{Message: "picture must include large, medium and thumbnail URLs"}
	}
	if len(in.RegisteredDate) == 0 {
		return &ValidationError{Message: "registeredDate is required"}
	}
	return nil
}
