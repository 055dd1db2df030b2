package postprocess

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// watermarkDesc renders the overlay as rotated, semi-transparent grey
// text on every page.
const watermarkDesc = "fontname:Helvetica, points:48, rot:45, opacity:0.5, fillcolor:#808080"

// watermarkPDF overlays text on every page of the PDF.
func watermarkPDF(content []byte, text string) ([]byte, error) {
	wm, err := api.TextWatermark(text, watermarkDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build watermark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(content), &out, nil, wm, nil); err != nil {
		return nil, fmt.Errorf("apply watermark: %w", err)
	}
	return out.Bytes(), nil
}
