package attendance

import "time"

// Attendance statuses.
const (
	StatusPresent = "PRESENT"
	StatusLate    = "LATE"
	StatusAbsent  = "ABSENT"
)

// GateResult is the outcome of a gate scan.
type GateResult struct {
	Status string `json:"status"`
}

// PeriodRecord is one student's mark for a period.
type PeriodRecord struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=PRESENT LATE ABSENT"`
}

// MarkResult reports how many records a period marking applied. Records for
// students without a gate presence are skipped, not failed.
type MarkResult struct {
	Marked  int `json:"marked"`
	Skipped int `json:"skipped"`
}

// RegisterGate is the gate portion of a register row.
type RegisterGate struct {
	Status      string     `json:"status"`
	ArrivalTime *time.Time `json:"arrivalTime"`
	IsLate      bool       `json:"isLate"`
}

// RegisterRow is one student's line on the daily class register.
type RegisterRow struct {
	StudentID  string           `json:"studentId"`
	Name       string           `json:"name"`
	SystemCode string           `json:"systemCode"`
	Gate       RegisterGate     `json:"gate"`
	Periods    map[int32]string `json:"periods"`
}

// Register is the full class register for one date.
type Register struct {
	ClassID        string        `json:"classId"`
	AcademicYearID string        `json:"academicYearId"`
	Date           time.Time     `json:"date"`
	Students       []RegisterRow `json:"students"`
}

// DailySummary aggregates gate attendance for one date.
type DailySummary struct {
	Date           time.Time       `json:"date"`
	AcademicYearID string          `json:"academicYearId"`
	Totals         SummaryTotals   `json:"totals"`
	PerClass       []ClassHeadline `json:"perClass"`
}

type SummaryTotals struct {
	Enrolled int `json:"enrolled"`
	Present  int `json:"present"`
	Late     int `json:"late"`
	Absent   int `json:"absent"`
}

type ClassHeadline struct {
	ClassID       string `json:"classId"`
	TotalStudents int    `json:"totalStudents"`
}

// MonthlyRow is one student's month of gate attendance.
type MonthlyRow struct {
	StudentID  string  `json:"studentId"`
	Name       string  `json:"name"`
	Present    int     `json:"present"`
	Late       int     `json:"late"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"attendancePercentage"`
}

// MonthlySummary covers one calendar month. TotalSchoolDays counts the
// distinct dates that have any gate record.
type MonthlySummary struct {
	Month           string       `json:"month"`
	AcademicYearID  string       `json:"academicYearId"`
	TotalSchoolDays int          `json:"totalSchoolDays"`
	Students        []MonthlyRow `json:"students"`
}
