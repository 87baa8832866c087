package models

import (
	"strings"
	"time"
)

// StatusPrefix is the naming convention for case lifecycle statuses.
// Stored status names carry the prefix ("Case: Open"); it is stripped
// for presentation and export.
const StatusPrefix = "Case: "

// Status group values used by the status filter.
const (
	StatusGroupOpen   = "open"
	StatusGroupClosed = "closed"
)

// Survivor is the person associated with an incident as the affected party.
type Survivor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Incident is a reported event, authored by or on behalf of a survivor.
type Incident struct {
	ID          int64     `json:"id"`
	SurvivorID  int64     `json:"survivor_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ContactInfo *string   `json:"contact_info,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Survivor *Survivor `json:"survivor,omitempty"`
}

// Status is a named lifecycle stage for a case, grouped into the
// "open" and "closed" sets.
type Status struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// DisplayName returns the status name with the "Case: " prefix stripped.
func (s *Status) DisplayName() string {
	return strings.TrimPrefix(s.Name, StatusPrefix)
}

// User is a staff member who can own cases.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Case is the casework unit created from exactly one incident.
// Listing and export always resolve Incident, Incident.Survivor and
// Status; Assignee is resolved when set.
type Case struct {
	ID              int64     `json:"id"`
	IncidentID      int64     `json:"incident_id"`
	StatusID        int64     `json:"status_id"`
	AssignedTo      *int64    `json:"assigned_to,omitempty"`
	ResolutionNotes *string   `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Incident *Incident `json:"incident,omitempty"`
	Status   *Status   `json:"status,omitempty"`
	Assignee *User     `json:"assignee,omitempty"`
}

// CaseNote is an append-only progress note on a case.
type CaseNote struct {
	ID        int64     `json:"id"`
	CaseID    int64     `json:"case_id"`
	AuthorID  int64     `json:"author_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// FilterAll is the sentinel value meaning "apply no constraint".
const FilterAll = "all"

// CaseFilter is the caller-supplied filter criteria for listing and
// export. All three keys are optional; absent or "all" values impose
// no constraint.
//
//   - Status: "all", "open", "closed", or a numeric status ID. Any
//     other value applies no status constraint.
//   - AssignedTo: "all" or a numeric user ID.
//   - Search: free text matched case-insensitively against incident
//     title, incident description and survivor name.
type CaseFilter struct {
	Status     string
	AssignedTo string
	Search     string
}

// ListCasesRequest holds pagination and filter criteria for listing cases.
type ListCasesRequest struct {
	Page   int
	Limit  int
	Filter CaseFilter
}

// ListCasesResponse is the paginated case listing.
type ListCasesResponse struct {
	Cases      []*Case    `json:"cases"`
	Pagination Pagination `json:"pagination"`
}

// Pagination carries paging metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// CreateIncidentRequest is the survivor-facing incident report payload.
type CreateIncidentRequest struct {
	SurvivorName string   `json:"survivor_name"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Location     string   `json:"location,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ContactInfo  *string  `json:"contact_info,omitempty"`
}

// CreateCaseRequest accepts an incident into casework. An initial
// status is required; assignment is optional and zero means unassigned.
type CreateCaseRequest struct {
	IncidentID int64 `json:"incident_id"`
	StatusID   int64 `json:"status_id"`
	AssignedTo int64 `json:"assigned_to"`
}

// UpdateCaseRequest mutates a case: status change, reassignment, or
// resolution notes. Nil fields are left untouched.
type UpdateCaseRequest struct {
	StatusID        *int64  `json:"status_id,omitempty"`
	AssignedTo      *int64  `json:"assigned_to,omitempty"`
	ResolutionNotes *string `json:"resolution_notes,omitempty"`
}

// AddCaseNoteRequest appends a progress note to a case.
type AddCaseNoteRequest struct {
	Note string `json:"note"`
}

// CaseStats summarizes the caseload for the dashboard.
type CaseStats struct {
	Total    int            `json:"total"`
	Open     int            `json:"open"`
	Closed   int            `json:"closed"`
	ByStatus map[string]int `json:"by_status"`
}
