package models

import "time"

// DocumentKind distinguishes the two moderated content collections.
type DocumentKind string

const (
	// KindPYQ is a previous-year question paper.
	KindPYQ DocumentKind = "pyq"
	// KindNotes is a study-notes record.
	KindNotes DocumentKind = "notes"
)

// Valid reports whether the kind is one of the known values.
func (k DocumentKind) Valid() bool {
	return k == KindPYQ || k == KindNotes
}

// Program values accepted for document classification.
const (
	ProgramBTech = "BTECH"
	ProgramMTech = "MTECH"
)

// DocumentStatus is the moderation state of a submitted document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// ReviewAction is a moderation decision applied to a pending document.
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)

// reviewTransitions is the single source of truth for the moderation
// state machine. Approved and rejected are terminal.
var reviewTransitions = map[DocumentStatus]map[ReviewAction]DocumentStatus{
	DocumentPending: {
		ReviewApprove: DocumentApproved,
		ReviewReject:  DocumentRejected,
	},
}

// NextStatus resolves the target status for a review action. The second
// return value is false when the transition is not defined.
func NextStatus(from DocumentStatus, action ReviewAction) (DocumentStatus, bool) {
	targets, ok := reviewTransitions[from]
	if !ok {
		return from, false
	}
	to, ok := targets[action]
	return to, ok
}

// DefaultRejectionReason is stored when a reviewer rejects without a reason.
const DefaultRejectionReason = "Does not meet the content guidelines"

// Document is a user-submitted record subject to the moderation workflow.
// Both kinds share the table; Kind discriminates the collection.
type Document struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Kind            DocumentKind   `gorm:"size:16;index;not null" json:"kind"`
	Program         string         `gorm:"size:32;not null" json:"program"`
	Department      string         `gorm:"size:64;not null" json:"department"`
	Branch          string         `gorm:"size:64" json:"branch"`
	Subject         string         `gorm:"size:128;not null" json:"subject"`
	Semester        int            `gorm:"not null" json:"semester"`
	Year            int            `gorm:"index;not null" json:"year"`
	FileURL         string         `gorm:"size:512;not null" json:"file_url"`
	Status          DocumentStatus `gorm:"size:16;index;not null;default:pending" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	SubmitterID     uint           `gorm:"index;not null" json:"submitter_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Submitter       User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submitter"`
}

// Decided reports whether the document has reached a terminal status.
func (d Document) Decided() bool {
	return d.Status == DocumentApproved || d.Status == DocumentRejected
}
