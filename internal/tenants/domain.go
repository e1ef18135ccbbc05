package tenants

import "time"

// Tenant represents one school instance. All tenant-scoped data in the
// system hangs off its ID.
type Tenant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SchoolCode   string    `json:"schoolCode"`
	SchoolType   string    `json:"schoolType"`
	Province     string    `json:"province,omitempty"`
	District     string    `json:"district"`
	Zone         string    `json:"zone"`
	Division     string    `json:"division"`
	Mediums      []string  `json:"mediums"`
	AddressLine1 string    `json:"addressLine1,omitempty"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateInput carries the fields for registering a school.
type CreateInput struct {
	Name         string   `json:"name" validate:"required"`
	SchoolCode   string   `json:"schoolCode" validate:"required"`
	SchoolType   string   `json:"schoolType" validate:"required"`
	Province     string   `json:"province"`
	District     string   `json:"district" validate:"required"`
	Zone         string   `json:"zone" validate:"required"`
	Division     string   `json:"division" validate:"required"`
	Mediums      []string `json:"mediums" validate:"required,min=1"`
	AddressLine1 string   `json:"addressLine1"`
	AddressLine2 string   `json:"addressLine2"`
	City         string   `json:"city"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// UpdateInput carries optional updates; nil fields are left unchanged.
type UpdateInput struct {
	Name         *string   `json:"name"`
	SchoolCode   *string   `json:"schoolCode"`
	SchoolType   *string   `json:"schoolType"`
	Province     *string   `json:"province"`
	District     *string   `json:"district"`
	Zone         *string   `json:"zone"`
	Division     *string   `json:"division"`
	Mediums      *[]string `json:"mediums"`
	AddressLine1 *string   `json:"addressLine1"`
	AddressLine2 *string   `json:"addressLine2"`
	City         *string   `json:"city"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
}
