// Package mapper converts contacts between the nested wire form and the
// flat row form stored in the contacts table.
package mapper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	wire "gitlab.com/dirk.krummacker/contact-book/pkg/model"
)

// dateLayouts are the string formats accepted for registeredDate, tried in
// order.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// RowToContact rebuilds the nested document form from a stored row. It
// never fails: rows are only ever written through ContactToRow, so the
// stored registered date is a canonical RFC 3339 string.
func RowToContact(row model.ContactRow) wire.Contact {
	registered, _ := time.Parse(time.RFC3339, row.RegisteredDate)
	return wire.Contact{
		ID:             strconv.FormatInt(row.Id, 10),
		FullName:       row.FullName,
		Email:          row.Email,
		Phone:          row.Phone,
		Cell:           row.Cell,
		RegisteredDate: registered,
		Age:            row.Age,
		Address: wire.Address{
			Street: wire.Street{
				Number: row.StreetNumber,
				Name:   row.StreetName,
			},
			City:    row.City,
			Country: row.Country,
		},
		Picture: wire.Picture{
			Large:     row.PictureLarge,
			Medium:    row.PictureMedium,
			Thumbnail: row.PictureThumbnail,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// ContactToRow flattens a validated submission into row form. The caller
// must already have checked required-field presence; only the registered
// date can still be rejected here.
func ContactToRow(in model.ContactInput) (model.ContactRow, *model.ValidationError) {
	registered, verr := NormalizeRegisteredDate(in.RegisteredDate)
	if verr != nil {
		return model.ContactRow{}, verr
	}
	return model.ContactRow{
		FullName:         *in.FullName,
		Email:            *in.Email,
		Phone:            in.Phone,
		Cell:             in.Cell,
		RegisteredDate:   registered,
		Age:              in.Age,
		StreetNumber:     *in.Address.Street.Number,
		StreetName:       *in.Address.Street.Name,
		City:             in.Address.City,
		Country:          in.Address.Country,
		PictureLarge:     *in.Picture.Large,
		PictureMedium:    *in.Picture.Medium,
		PictureThumbnail: *in.Picture.Thumbnail,
	}, nil
}

// NormalizeRegisteredDate resolves the date union accepted on the wire,
// either a JSON string or an epoch-milliseconds number, into the canonical
// UTC RFC 3339 string kept in the registered_date column.
func NormalizeRegisteredDate(raw json.RawMessage) (string, *model.ValidationError) {
	if len(raw) == 0 {
		return "", &model.ValidationError{Message: "registeredDate is required"}
	}
	if bytes.Equal(raw, []byte("null")) {
		return "", &model.ValidationError{
			Message:  "registeredDate must be a date or an ISO-8601 string",
			Received: "null",
		}
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		for _, layout := range dateLayouts {
			if parsed, errParse := time.Parse(layout, asString); errParse == nil {
				return parsed.UTC().Format(time.RFC3339), nil
			}
		}
		return "", &model.ValidationError{
			Message:  "registeredDate has an invalid date format",
			Received: asString,
		}
	}
	var asMillis int64
	if err := json.Unmarshal(raw, &asMillis); err == nil {
		return time.UnixMilli(asMillis).UTC().Format(time.RFC3339), nil
	}
	return "", &model.ValidationError{
		Message:  "registeredDate must be a date or an ISO-8601 string",
		Received: string(raw),
	}
}
