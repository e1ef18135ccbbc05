package leaves

import "time"

// Leave statuses.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// Leave is a teacher's leave request.
type Leave struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenantId"`
	TeacherID        string     `json:"teacherId"`
	TeacherName      string     `json:"teacherName,omitempty"`
	DateFrom         time.Time  `json:"dateFrom"`
	DateTo           time.Time  `json:"dateTo"`
	ReasonCode       string     `json:"reasonCode"`
	Note             string     `json:"note,omitempty"`
	Status           string     `json:"status"`
	DecisionNote     string     `json:"decisionNote,omitempty"`
	ApprovedByUserID string     `json:"approvedByUserId,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	RequestedAt      time.Time  `json:"requestedAt"`
}

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
