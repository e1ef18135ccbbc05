package timetable

import "time"

// Override reasons.
const (
	ReasonSubstitution = "SUBSTITUTION"
	ReasonCancellation = "CANCELLATION"
	ReasonRoomChange   = "ROOM_CHANGE"
	ReasonSpecialEvent = "SPECIAL_EVENT"
)

// Slot is one recurring class period. Times are "HH:MM" strings; ordering
// works lexically on that format.
type Slot struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	AcademicYearID string    `json:"academicYearId"`
	DayOfWeek      string    `json:"dayOfWeek"`
	PeriodNumber   int32     `json:"periodNumber"`
	StartTime      string    `json:"startTime"`
	EndTime        string    `json:"endTime"`
	ClassID        string    `json:"classId"`
	SubjectID      string    `json:"subjectId"`
	TeacherID      string    `json:"teacherId"`
	Room           string    `json:"room,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Display fields joined from related tables on reads.
	ClassCode   string `json:"classCode,omitempty"`
	TeacherName string `json:"teacherName,omitempty"`
	SubjectName string `json:"subjectName,omitempty"`
	SubjectCode string `json:"subjectCode,omitempty"`
}

// Override replaces or cancels a slot for a date range, typically to cover
// teacher leave.
type Override struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenantId"`
	AcademicYearID    string    `json:"academicYearId"`
	SlotID            string    `json:"slotId"`
	DateFrom          time.Time `json:"dateFrom"`
	DateTo            time.Time `json:"dateTo"`
	OverrideTeacherID string    `json:"overrideTeacherId,omitempty"`
	OverrideSubjectID string    `json:"overrideSubjectId,omitempty"`
	Reason            string    `json:"reason"`
	Note              string    `json:"note,omitempty"`
	IsActive          bool      `json:"isActive"`
	CreatedByUserID   string    `json:"createdByUserId"`
	CreatedAt         time.Time `json:"createdAt"`

	OverrideTeacherName string `json:"overrideTeacherName,omitempty"`
	OverrideSubjectName string `json:"overrideSubjectName,omitempty"`
	SlotClassCode       string `json:"slotClassCode,omitempty"`
}

func validReason(reason string) bool {
	switch reason {
	case ReasonSubstitution, ReasonCancellation, ReasonRoomChange, ReasonSpecialEvent:
		return true
	}
	return false
}
