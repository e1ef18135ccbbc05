package teachers

import "time"

// Profile is a teacher's employment profile. A profile may optionally be
// linked to a login user.
type Profile struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenantId"`
	SystemCode       string    `json:"systemCode"`
	UserID           string    `json:"userId,omitempty"`
	FullName         string    `json:"fullName"`
	Initials         string    `json:"initials,omitempty"`
	NIC              string    `json:"nic"`
	TIN              string    `json:"tin,omitempty"`
	SubjectCodes     []string  `json:"subjectCodes"`
	AppointmentType  string    `json:"appointmentType"`
	ServiceStart     time.Time `json:"serviceStart"`
	EmploymentStatus string    `json:"employmentStatus,omitempty"`
	DateOfBirth      time.Time `json:"dateOfBirth"`
	Gender           string    `json:"gender"`
	MotherTongue     string    `json:"motherTongue,omitempty"`
	Religion         string    `json:"religion,omitempty"`
	Ethnicity        string    `json:"ethnicity,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
