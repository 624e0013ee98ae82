// Package raster validates uploaded PDFs and renders their pages to images.
package raster

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ValidatePDF checks that data is a readable, non-empty, unencrypted PDF
// and returns its page count. Relaxed validation is used on purpose:
// scanned plan sets frequently come from sloppy producers. Encryption is
// checked explicitly; an owner-password-only document opens without a
// password, so a read error alone does not cover it.
func ValidatePDF(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("uploaded file is empty")
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), cfg)
	if err != nil {
		return 0, fmt.Errorf("not a readable PDF: %w", err)
	}
	if pdfCtx.Encrypt != nil {
		return 0, fmt.Errorf("encrypted PDFs are not supported")
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return 0, fmt.Errorf("not a valid PDF: %w", err)
	}
	if pdfCtx.PageCount == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pdfCtx.PageCount, nil
}
