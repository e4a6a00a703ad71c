package report

import (
	"time"

	"github.com/google/uuid"
)

// Report is a single laboratory report. Technician is the username of the
// technician who created it and gates every mutating operation. PhotoPath
// points at the stored photo file when one is attached.
type Report struct {
	ID               uuid.UUID `json:"id"`
	FileNumber       string    `json:"fileNumber"`
	PatientTRID      string    `json:"patientTrIdNumber"`
	Technician       string    `json:"technician"`
	DiagnosisTitle   string    `json:"diagnosisTitle"`
	DiagnosisDetails string    `json:"diagnosisDetails"`
	Date             time.Time `json:"reportDate"`
	PhotoPath        *string   `json:"photoPath,omitempty"`
	Deleted          bool      `json:"deleted"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Draft carries the caller-supplied fields for a new report. The patient's
// TR identity number is never taken from the draft; it comes from the
// caller's validation entry.
type Draft struct {
	FileNumber       string `json:"fileNumber"`
	DiagnosisTitle   string `json:"diagnosisTitle"`
	DiagnosisDetails string `json:"diagnosisDetails"`
}

// Patch carries the updatable fields. Empty strings leave the stored value
// unchanged; the report date always refreshes on update.
type Patch struct {
	FileNumber       string `json:"fileNumber"`
	DiagnosisTitle   string `json:"diagnosisTitle"`
	DiagnosisDetails string `json:"diagnosisDetails"`
}

// Filter narrows a report search. Zero values are ignored; Deleted selects
// between the active and the soft-deleted population, and HasPhoto, when
// set, selects reports with or without an attached photo.
type Filter struct {
	FileNumber       string
	PatientTRID      string
	Technician       string
	DiagnosisTitle   string
	DiagnosisDetails string
	From             time.Time
	To               time.Time
	HasPhoto         *bool
	Deleted          bool
}
