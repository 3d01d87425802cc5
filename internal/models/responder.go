package models

import "time"

// ResponderSnapshot is the point-in-time copy of a responder's identity
// embedded into alert records at assignment. It is a value, not a live
// reference: later edits to the responder's directory record never alter
// historical alerts.
type ResponderSnapshot struct {
	ID            string `json:"_id"`
	NIC           string `json:"NIC"`
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
	Email         string `json:"email"`
	ResponderType string `json:"responderType"`
	Position      string `json:"position"`
}

// Responder is a field unit's directory record, including availability and
// last reported position.
type Responder struct {
	ID            string    `json:"_id"`
	NIC           string    `json:"NIC"`
	Name          string    `json:"name"`
	ContactNumber string    `json:"contactNumber"`
	Email         string    `json:"email"`
	ResponderType string    `json:"responderType"`
	Position      string    `json:"position"`
	Available     bool      `json:"available"`
	LastLat       float64   `json:"lastLat,omitempty"`
	LastLng       float64   `json:"lastLng,omitempty"`
	MapLink       string    `json:"mapLink,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Snapshot freezes the directory record into the embeddable value type.
func (r Responder) Snapshot() ResponderSnapshot {
	return ResponderSnapshot{
		ID:            r.ID,
		NIC:           r.NIC,
		Name:          r.Name,
		ContactNumber: r.ContactNumber,
		Email:         r.Email,
		ResponderType: r.ResponderType,
		Position:      r.Position,
	}
}
