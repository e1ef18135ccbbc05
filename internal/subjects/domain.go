package subjects

import "time"

// Subject is a taught subject with the grade numbers it is valid for.
type Subject struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	ValidGrades []int32   `json:"validGrades"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
