package models

import "time"

// These structs define the JSON payloads for HTTP requests and responses
// between the API layer and its clients.

// BrandReviewUpdate marks a detected brand as reviewed (or not) on a page.
type BrandReviewUpdate struct {
	PageNumber int    `json:"page_number"`
	BrandName  string `json:"brand_name"`
	IsReviewed bool   `json:"is_reviewed"`
}

// ActiveProcess is a point-in-time snapshot of one running document job.
// Readers only ever see copies of this struct, never the tracker's live
// record.
type ActiveProcess struct {
	DocumentID     string    `json:"document_id"`
	StartTime      time.Time `json:"start_time"`
	TotalPages     int       `json:"total_pages"`
	ProcessedPages int       `json:"processed_pages"`
	FailedPages    int       `json:"failed_pages"`
	CurrentBatch   int       `json:"current_batch"`
}

// ActiveProcessesResponse is the payload for the active-processes endpoint.
type ActiveProcessesResponse struct {
	ActiveProcesses []ActiveProcess `json:"active_processes"`
	Count           int             `json:"count"`
}

// MessageResponse is a generic success payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
