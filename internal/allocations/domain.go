package allocations

import "time"

const roleSubjectTeacher = "SUBJECT_TEACHER"

// Allocation links a teacher to a subject taught in a class for one
// academic year.
type Allocation struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	TeacherID      string    `json:"teacherId"`
	GradeID        string    `json:"gradeId"`
	ClassID        string    `json:"classId"`
	SubjectID      string    `json:"subjectId"`
	AcademicYearID string    `json:"academicYearId"`
	RoleInClass    string    `json:"roleInClass"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ScheduleEntry is one allocation expanded with display fields for the
// teacher schedule view.
type ScheduleEntry struct {
	Allocation
	SubjectName string `json:"subjectName"`
	ClassCode   string `json:"classCode"`
	ClassName   string `json:"className"`
	GradeNumber int32  `json:"gradeNumber"`
	YearLabel   string `json:"yearLabel"`
}
