package models

import "time"

// Document statuses. A document stays in StatusProcessing until its last
// batch resolves; the terminal status is derived from the per-page outcomes.
const (
	StatusProcessing          = "processing"
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
	StatusFailed              = "failed"
	StatusCancelled           = "cancelled"
)

// Page statuses, ordered pending < processing < terminal.
const (
	PageStatusPending    = "pending"
	PageStatusProcessing = "processing"
	PageStatusCompleted  = "completed"
	PageStatusFailed     = "failed"
)

// Document is the main record for a brand detection job in Firestore.
// Pages write into the Results map keyed by page number, so concurrent
// page completions never touch sibling entries.
type Document struct {
	ID         string                 `firestore:"id" json:"id"`
	Filename   string                 `firestore:"filename" json:"filename"`
	TotalPages int                    `firestore:"totalPages" json:"total_pages"`
	UploadDate time.Time              `firestore:"uploadDate" json:"upload_date"`
	Status     string                 `firestore:"status" json:"status"`
	Results    map[string]*PageResult `firestore:"results,omitempty" json:"results,omitempty"`
	Summary    *Summary               `firestore:"summary,omitempty" json:"summary,omitempty"`
}

// PageResult holds the outcome of analyzing a single page.
type PageResult struct {
	PageNumber     int             `firestore:"pageNumber" json:"page_number"`
	BrandsDetected []string        `firestore:"brandsDetected" json:"brands_detected"`
	ProcessingTime float64         `firestore:"processingTime" json:"processing_time"`
	Status         string          `firestore:"status" json:"status"`
	ErrorMessage   string          `firestore:"errorMessage,omitempty" json:"error_message,omitempty"`
	ReviewedBrands map[string]bool `firestore:"reviewedBrands,omitempty" json:"reviewed_brands,omitempty"`
}

// Summary aggregates a completed document's results. Generated once at
// document completion; regenerating overwrites.
type Summary struct {
	TotalPages          int            `firestore:"totalPages" json:"total_pages"`
	SuccessfulPages     int            `firestore:"successfulPages" json:"successful_pages"`
	FailedPages         int            `firestore:"failedPages" json:"failed_pages"`
	UniqueBrands        []string       `firestore:"uniqueBrands" json:"unique_brands"`
	BrandsPerPage       map[string]int `firestore:"brandsPerPage,omitempty" json:"brands_per_page,omitempty"`
	TotalProcessingTime float64        `firestore:"totalProcessingTime" json:"total_processing_time"`
}

// ProcessingStatus is a derived view over a document's page results,
// computed on demand and never stored.
type ProcessingStatus struct {
	DocumentID         string         `json:"document_id"`
	Status             string         `json:"status"`
	TotalPages         int            `json:"total_pages"`
	ProcessedPages     int            `json:"processed_pages"`
	FailedPages        int            `json:"failed_pages"`
	ProgressPercentage float64        `json:"progress_percentage"`
	PageStatus         map[int]string `json:"page_status"`
}

// pageRank orders page statuses for the monotonicity check.
var pageRank = map[string]int{
	PageStatusPending:    0,
	PageStatusProcessing: 1,
	PageStatusCompleted:  2,
	PageStatusFailed:     2,
}

// CanTransitionPage reports whether a page status change moves forward.
// The two terminal statuses share a rank, so completed never flips to
// failed and vice versa.
func CanTransitionPage(from, to string) bool {
	fr, okFrom := pageRank[from]
	tr, okTo := pageRank[to]
	if !okFrom || !okTo {
		return false
	}
	return tr > fr
}

// IsTerminalStatus reports whether a document status admits no further
// transitions.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// AggregateStatus derives a document's terminal status from its page
// outcomes: completed iff no failures, failed iff everything failed,
// completed_with_errors otherwise.
func AggregateStatus(totalPages, failedPages int) string {
	switch {
	case failedPages == 0:
		return StatusCompleted
	case failedPages >= totalPages:
		return StatusFailed
	default:
		return StatusCompletedWithErrors
	}
}
