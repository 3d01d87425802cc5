package models

// AlertCreate is the submission payload for a new SOS alert.
type AlertCreate struct {
	UserID        string       `json:"userId"`
	NIC           string       `json:"NIC"`
	ContactNumber string       `json:"contactNumber"`
	EmergencyType string       `json:"emergencyType"`
	LiveLocation  LiveLocation `json:"liveLocation"`
	Address       string       `json:"address"`
	PriorityLevel string       `json:"priorityLevel"`
	ResponderType string       `json:"responderType"`
	Photos        []string     `json:"photos"`
	Videos        []string     `json:"videos"`
}

// CancelRequest carries the cancellation reason and who initiated it.
type CancelRequest struct {
	Reason     string             `json:"reason" binding:"required"`
	CanceledBy *ResponderSnapshot `json:"canceledBy,omitempty"`
}

// CompleteRequest carries completion metadata; media file references are
// collected from the multipart upload, not this body.
type CompleteRequest struct {
	Comment          string `json:"comment"`
	CommentBy        string `json:"commentBy"`
	CommentByNIC     string `json:"commentByNIC"`
	CommentByContact string `json:"commentByContactNumber"`
}

// AssignRequest is the responder snapshot supplied on assign/reassign.
type AssignRequest struct {
	ID            string `json:"_id"`
	NIC           string `json:"NIC" binding:"required"`
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
	Email         string `json:"email"`
	ResponderType string `json:"responderType"`
	Position      string `json:"position"`
}

// LocationUpdate moves an alert's live location.
type LocationUpdate struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	MapLink string  `json:"mapLink"`
}

// PositionUpdate moves a responder's own last-known position.
type PositionUpdate struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	MapLink string  `json:"mapLink"`
}
