package models

// DashboardStats aggregates the headline numbers on the admin landing
// page. Served from cache when available.
type DashboardStats struct {
	Students        int       `json:"students"`
	Professors      int       `json:"professors"`
	Courses         int       `json:"courses"`
	Departments     int       `json:"departments"`
	PendingRequests int       `json:"pending_requests"`
	OpenSemester    *Semester `json:"open_semester,omitempty"`
}
