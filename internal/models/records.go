package models

// RegistrationState is the derived standing of a student towards a
// catalog course. Precedence: completed > registered > prerequisite
// outcome.
type RegistrationState string

const (
	RegistrationStateCompleted     RegistrationState = "COMPLETED"
	RegistrationStateRegistered    RegistrationState = "REGISTERED"
	RegistrationStateAvailable     RegistrationState = "AVAILABLE"
	RegistrationStateNeedsOverride RegistrationState = "NEEDS_OVERRIDE"
)

// Label returns the Arabic display label the legacy portal shows for
// each state.
func (s RegistrationState) Label() string {
	switch s {
	case RegistrationStateCompleted:
		return "مكتمل"
	case RegistrationStateRegistered:
		return "مسجل"
	case RegistrationStateAvailable:
		return "متاح"
	case RegistrationStateNeedsOverride:
		return "يتطلب تجاوز"
	default:
		return string(s)
	}
}

// Availability is the outcome of a prerequisite check.
type Availability struct {
	Available bool     `json:"available"`
	Unmet     []string `json:"unmet,omitempty"`
}

// CourseStanding describes a student's standing towards one course,
// including the action the portal offers next.
type CourseStanding struct {
	CourseID   string            `json:"course_id"`
	CourseCode string            `json:"course_code"`
	State      RegistrationState `json:"state"`
	Label      string            `json:"label"`
	Action     string            `json:"action,omitempty"`
	Message    string            `json:"message"`
	TotalGrade *int              `json:"total_grade,omitempty"`
	Unmet      []string          `json:"unmet,omitempty"`
}

// GPASummary is a credit-weighted grade average over a set of
// completed or transferred enrollments.
type GPASummary struct {
	GPA     string `json:"gpa"`
	Points  int    `json:"points"`
	Credits int    `json:"credits"`
}

// TranscriptCourse is one graded course row on a transcript.
type TranscriptCourse struct {
	CourseID        string           `json:"course_id"`
	CourseCode      string           `json:"course_code"`
	CourseName      string           `json:"course_name"`
	Credits         int              `json:"credits"`
	SemesterID      string           `json:"semester_id"`
	CourseworkGrade *int             `json:"coursework_grade"`
	FinalGrade      *int             `json:"final_grade"`
	TotalGrade      *int             `json:"total_grade"`
	Passed          bool             `json:"passed"`
	Status          EnrollmentStatus `json:"status"`
}

// TranscriptSemester groups transcript rows under a semester with its GPA.
type TranscriptSemester struct {
	SemesterID   string             `json:"semester_id"`
	SemesterName string             `json:"semester_name"`
	Courses      []TranscriptCourse `json:"courses"`
	GPA          GPASummary         `json:"gpa"`
}

// Transcript is a student's full academic record.
type Transcript struct {
	StudentID   string               `json:"student_id"`
	StudentName string               `json:"student_name"`
	StudentNo   string               `json:"student_no"`
	Semesters   []TranscriptSemester `json:"semesters"`
	Cumulative  GPASummary           `json:"cumulative"`
}
