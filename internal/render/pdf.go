package render

import (
	"context"

	"docforge/internal/model"
)

// pdfEngine is the pdf variant. In-place placeholder substitution is not
// supported for this format: the template bytes pass through unchanged.
// This is a documented limitation of the pdf template type, not a silent
// fallback.
type pdfEngine struct{}

// NewPDFEngine builds the pdf passthrough variant.
func NewPDFEngine() Engine {
	return &pdfEngine{}
}

func (e *pdfEngine) OutputType() model.FileType {
	return model.FileTypePDF
}

func (e *pdfEngine) Render(ctx context.Context, templateContent []byte, data map[string]any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]byte, len(templateContent))
	copy(out, templateContent)
	return out, nil
}
