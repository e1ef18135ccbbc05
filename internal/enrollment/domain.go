package enrollment

const admissionStatusNew = "NEW"

// BulkResult reports a bulk enrollment outcome. Warnings are advisory; the
// enrollment still commits.
type BulkResult struct {
	Enrolled int      `json:"enrolled"`
	Warnings []string `json:"warnings"`
}

// RosterStudent is the student slice shown on a class roster.
type RosterStudent struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	IndexNumber     string `json:"indexNumber,omitempty"`
	AdmissionNumber string `json:"admissionNumber"`
	Gender          string `json:"gender"`
}

// Roster is the class register for the active academic year.
type Roster struct {
	ClassID      string          `json:"classId"`
	ClassCode    string          `json:"classCode"`
	ClassName    string          `json:"className"`
	AcademicYear string          `json:"academicYear"`
	Students     []RosterStudent `json:"students"`
}
