package students

import "time"

const (
	addressPermanent = "PERMANENT"
	addressCurrent   = "CURRENT"

	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Student is the admitted-student profile.
type Student struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenantId"`
	SystemCode      string     `json:"systemCode"`
	AdmissionNumber string     `json:"admissionNumber"`
	IndexNumber     string     `json:"indexNumber,omitempty"`
	FullName        string     `json:"fullName"`
	Initials        string     `json:"initials,omitempty"`
	DateOfBirth     time.Time  `json:"dateOfBirth"`
	Gender          string     `json:"gender"`
	Medium          string     `json:"medium,omitempty"`
	Religion        string     `json:"religion,omitempty"`
	AdmissionDate   time.Time  `json:"admissionDate"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

// Address is one of the student's registered addresses.
type Address struct {
	ID          string `json:"id"`
	AddressType string `json:"addressType"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	District    string `json:"district,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
}

// Parent is a guardian record, deduplicated tenant-wide by NIC.
type Parent struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	NIC       string `json:"nic"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Relation  string `json:"relation"`
	WasReused bool   `json:"-"`
}

// Detail is a student with related records attached.
type Detail struct {
	Student
	Addresses []Address `json:"addresses"`
	Parents   []Parent  `json:"parents"`
}

// AdmissionResult reports what the admission transaction created.
type AdmissionResult struct {
	Student       Student `json:"student"`
	Parent        Parent  `json:"parent"`
	ParentReused  bool    `json:"parentReused"`
	InviteCreated bool    `json:"inviteCreated"`
}
