// Package detect wraps the generative brand-extraction backend behind a
// backend-agnostic "analyze this content, return brand names" contract.
package detect

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/rs/zerolog"

	"github.com/Lllllllleong/brandscan/internal/gcp"
	"github.com/Lllllllleong/brandscan/internal/governor"
)

// Generator is the slice of the Gemini model surface the detector needs.
// *genai.GenerativeModel satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// ModelPool hands out a generator per unit of work. gcp.GeminiPool
// satisfies it via a thin adapter in the server wiring.
type ModelPool interface {
	Pick(index int) Generator
}

// Detector calls a pooled generative model and turns its free-form reply
// into a clean brand list. Every failure mode (backend error, malformed
// JSON, missing field) degrades to an empty list; a missed brand is
// preferable to aborting the document run.
type Detector struct {
	pool     ModelPool
	gov      *governor.Governor
	denylist Denylist
	log      zerolog.Logger
}

// NewDetector wires a model pool behind the shared brand-extraction
// governor.
func NewDetector(pool ModelPool, gov *governor.Governor, denylist Denylist, log zerolog.Logger) *Detector {
	return &Detector{
		pool:     pool,
		gov:      gov,
		denylist: denylist,
		log:      log,
	}
}

// DetectImage analyzes a rendered page image (PNG bytes) and returns the
// cleaned brand list for the page.
func (d *Detector) DetectImage(ctx context.Context, pngData []byte, page int) []string {
	prompt := fmt.Sprintf(gcp.BrandDetectionImagePrompt, page, page)
	return d.detect(ctx, page,
		genai.Blob{MIMEType: "image/png", Data: pngData},
		genai.Text(prompt),
	)
}

// DetectText analyzes extracted page text and returns the cleaned brand
// list for the page. Empty text short-circuits to an empty list without a
// backend call.
func (d *Detector) DetectText(ctx context.Context, text string, page int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	prompt := fmt.Sprintf(gcp.BrandDetectionTextPrompt, page, page, text)
	return d.detect(ctx, page, genai.Text(prompt))
}

func (d *Detector) detect(ctx context.Context, page int, parts ...genai.Part) []string {
	var resp *genai.GenerateContentResponse
	err := d.gov.Do(ctx, func() error {
		var genErr error
		resp, genErr = d.pool.Pick(page).GenerateContent(ctx, parts...)
		return genErr
	})
	if err != nil {
		d.log.Error().Int("page", page).Err(err).Msg("brand extraction backend call failed, returning no brands")
		return []string{}
	}

	reply := responseText(resp)
	brands, err := ParseBrands(reply)
	if err != nil {
		d.log.Warn().Int("page", page).Err(err).Str("reply_prefix", truncate(reply, 200)).
			Msg("could not parse brand extraction reply, returning no brands")
		return []string{}
	}

	return d.Clean(brands)
}

// Clean applies the denylist and case-insensitive deduplication. Exposed
// so tile-level merges go through the exact same normalization.
func (d *Detector) Clean(brands []string) []string {
	return Dedupe(d.denylist.Filter(brands))
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
