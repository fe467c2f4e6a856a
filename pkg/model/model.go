// Package model defines the wire representation of a contact as exchanged
// with API clients, plus the response envelopes the service wraps it in.
package model

import "time"

// Street is the street part of a contact's address. Both fields are
// mandatory.
type Street struct {
	Number int64  `json:"number"`
	Name   string `json:"name"`
}

// Address is the postal address of a contact. City and country are
// optional, the street is not.
type Address struct {
	Street  Street  `json:"street"`
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
}

// Picture holds the avatar URLs of a contact in three sizes. All three are
// mandatory.
type Picture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Thumbnail string `json:"thumbnail"`
}

// Contact is the nested document shape of a contact. The id is the decimal
// string form of the storage key and is assigned by the service, never by
// the client. CreatedAt and UpdatedAt are likewise server-managed.
type Contact struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone,omitempty"`
	Cell           *string   `json:"cell,omitempty"`
	RegisteredDate time.Time `json:"registeredDate"`
	Age            *int64    `json:"age,omitempty"`
	Address        Address   `json:"address"`
	Picture        Picture   `json:"picture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ContactResponse is the envelope around a single contact as returned by
// the get, create, and update endpoints.
type ContactResponse struct {
	Success bool    `json:"success"`
	Data    Contact `json:"data"`
	Message string  `json:"message,omitempty"`
}

// ContactListResponse is the envelope returned by the list endpoint.
type ContactListResponse struct {
	Success bool      `json:"success"`
	Data    []Contact `json:"data"`
	Count   int       `json:"count"`
}

// StatusResponse is the envelope returned by endpoints that carry no
// contact data, such as delete.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
