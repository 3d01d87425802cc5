package models

import "time"

// LiveLocation is the reporter's last known position: a shareable map link
// plus [longitude, latitude]. Coordinates always has length 2.
type LiveLocation struct {
	Link        string    `json:"link"`
	Coordinates []float64 `json:"coordinates"`
}

// Alert is the logical emergency report. ReportID is globally unique across
// every partition; at any instant exactly one partition holds the
// authoritative copy. Stage-specific fields are nil/empty while the record
// sits in earlier stages.
type Alert struct {
	ReportID      string              `json:"reportId"`
	UserID        string              `json:"userId"`
	NIC           string              `json:"NIC"`
	ContactNumber string              `json:"contactNumber"`
	EmergencyType EmergencyType       `json:"emergencyType"`
	LiveLocation  LiveLocation        `json:"liveLocation"`
	Address       string              `json:"address"`
	Timestamp     time.Time           `json:"timestamp"`
	PriorityLevel PriorityLevel       `json:"priorityLevel"`
	ResponderType string              `json:"responderType,omitempty"`
	Status        string              `json:"status"`
	Assigned      []ResponderSnapshot `json:"assignedResponders"`
	Photos        []string            `json:"photos,omitempty"`
	Videos        []string            `json:"videos,omitempty"`

	// Accepted stage
	AcceptedAt *time.Time         `json:"acceptedAt,omitempty"`
	AcceptedBy *ResponderSnapshot `json:"acceptedBy,omitempty"`

	// Completed stage
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	Comment          string     `json:"comment,omitempty"`
	CommentBy        string     `json:"commentBy,omitempty"`
	CommentByNIC     string     `json:"commentByNIC,omitempty"`
	CommentByContact string     `json:"commentByContactNumber,omitempty"`
	Media            []string   `json:"media,omitempty"`

	// Canceled stage
	ReasonToReject string     `json:"reasonToReject,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
}

// HasAssigned reports whether the given NIC already appears in the
// assignment set.
func (a *Alert) HasAssigned(nic string) bool {
	for _, r := range a.Assigned {
		if r.NIC == nic {
			return true
		}
	}
	return false
}

// Assign appends a responder snapshot unless its NIC is already present.
// Returns true when the set changed.
func (a *Alert) Assign(snap ResponderSnapshot) bool {
	if a.HasAssigned(snap.NIC) {
		return false
	}
	a.Assigned = append(a.Assigned, snap)
	return true
}

// Clone returns a deep copy so callers can mutate without sharing slices.
func (a Alert) Clone() Alert {
	c := a
	c.LiveLocation.Coordinates = append([]float64(nil), a.LiveLocation.Coordinates...)
	c.Assigned = append([]ResponderSnapshot(nil), a.Assigned...)
	c.Photos = append([]string(nil), a.Photos...)
	c.Videos = append([]string(nil), a.Videos...)
	c.Media = append([]string(nil), a.Media...)
	if a.AcceptedBy != nil {
		by := *a.AcceptedBy
		c.AcceptedBy = &by
	}
	return c
}

// StagedAlert tags a cross-partition query hit with the partition it was
// found in.
type StagedAlert struct {
	Stage Stage `json:"stage"`
	Alert Alert `json:"alert"`
}
