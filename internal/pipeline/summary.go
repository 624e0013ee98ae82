package pipeline

import (
	"sort"
	"strings"

	"github.com/Lllllllleong/brandscan/internal/models"
)

// BuildSummary aggregates a document's page results. Brand uniqueness is
// case-insensitive with first-seen casing kept, matching the per-page
// cleanup, and the list is sorted for stable output.
func BuildSummary(doc *models.Document) *models.Summary {
	summary := &models.Summary{
		TotalPages:    doc.TotalPages,
		BrandsPerPage: make(map[string]int),
	}

	seen := make(map[string]string)
	for page, result := range doc.Results {
		switch result.Status {
		case models.PageStatusCompleted:
			summary.SuccessfulPages++
		case models.PageStatusFailed:
			summary.FailedPages++
		}
		summary.TotalProcessingTime += result.ProcessingTime
		summary.BrandsPerPage[page] = len(result.BrandsDetected)
		for _, brand := range result.BrandsDetected {
			key := strings.ToLower(brand)
			if _, ok := seen[key]; !ok {
				seen[key] = brand
			}
		}
	}

	summary.UniqueBrands = make([]string, 0, len(seen))
	for _, brand := range seen {
		summary.UniqueBrands = append(summary.UniqueBrands, brand)
	}
	sort.Slice(summary.UniqueBrands, func(i, j int) bool {
		return strings.ToLower(summary.UniqueBrands[i]) < strings.ToLower(summary.UniqueBrands[j])
	})
	return summary
}

// DeriveStatus builds the on-demand progress view for a document.
func DeriveStatus(doc *models.Document) *models.ProcessingStatus {
	status := &models.ProcessingStatus{
		DocumentID: doc.ID,
		Status:     doc.Status,
		TotalPages: doc.TotalPages,
		PageStatus: make(map[int]string),
	}

	for _, result := range doc.Results {
		status.PageStatus[result.PageNumber] = result.Status
		switch result.Status {
		case models.PageStatusCompleted:
			status.ProcessedPages++
		case models.PageStatusFailed:
			status.ProcessedPages++
			status.FailedPages++
		}
	}

	if doc.TotalPages > 0 {
		status.ProgressPercentage = float64(status.ProcessedPages) / float64(doc.TotalPages) * 100
	}
	return status
}
