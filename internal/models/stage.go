package models

// Stage names the partition an alert record currently resides in.
type Stage string

const (
	StagePending   Stage = "pending"
	StageAccepted  Stage = "accepted"
	StageCompleted Stage = "completed"
	StageCanceled  Stage = "canceled"
)

// Stages lists all partitions in lifecycle order. Lookups that span
// partitions walk this slice front to back; when a reportId transiently
// appears in more than one partition the later stage is authoritative,
// so reverse iteration resolves duplicates.
var Stages = []Stage{StagePending, StageAccepted, StageCompleted, StageCanceled}

// Status values carried inside alert records. Partition membership and the
// status field overlap conceptually; status filtering is only ever applied
// within the Pending partition.
const (
	StatusPending    = "pending"
	StatusAccepted   = "accepted"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusCancelled  = "cancelled"
	StatusReached    = "reached"
	StatusCompleted  = "completed"
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusAccepted:   true,
	StatusInProgress: true,
	StatusResolved:   true,
	StatusCancelled:  true,
}

// IsFilterableStatus reports whether s is a recognized value for the
// Pending-partition status filter.
func IsFilterableStatus(s string) bool {
	return validStatuses[s]
}

// EmergencyType classifies the reported emergency.
type EmergencyType string

const (
	EmergencyMedical         EmergencyType = "medical"
	EmergencyFire            EmergencyType = "fire"
	EmergencyAccident        EmergencyType = "accident"
	EmergencyAssault         EmergencyType = "assault"
	EmergencyNaturalDisaster EmergencyType = "natural_disaster"
	EmergencyOther           EmergencyType = "other"
)

func (e EmergencyType) Valid() bool {
	switch e {
	case EmergencyMedical, EmergencyFire, EmergencyAccident,
		EmergencyAssault, EmergencyNaturalDisaster, EmergencyOther:
		return true
	}
	return false
}

// PriorityLevel ranks alert urgency.
type PriorityLevel string

const (
	PriorityLow      PriorityLevel = "low"
	PriorityMedium   PriorityLevel = "medium"
	PriorityHigh     PriorityLevel = "high"
	PriorityCritical PriorityLevel = "critical"
)

func (p PriorityLevel) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
