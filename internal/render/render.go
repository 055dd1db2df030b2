package render

import (
	"context"
	"errors"
	"fmt"

	"docforge/internal/model"
)

// Package render implements placeholder rendering, polymorphic over the
// template file type. Engines are pure transformations over in-memory
// buffers: identical inputs produce identical outputs and a failed render
// leaves no observable state behind.

var (
	// ErrUnsupportedType is returned for file types no engine handles.
	ErrUnsupportedType = errors.New("unsupported template type")
	// ErrTemplateSyntax is returned when the template body cannot be parsed.
	ErrTemplateSyntax = errors.New("template syntax error")
)

// Engine substitutes the named placeholders of a template with values
// from the data map and returns the produced document bytes.
type Engine interface {
	Render(ctx context.Context, templateContent []byte, data map[string]any) ([]byte, error)
	// OutputType is the format of the bytes Render produces, which may
	// differ from the template's own type (html templates render to pdf).
	OutputType() model.FileType
}

// Engines bundles one engine per supported file type.
type Engines struct {
	html Engine
	docx Engine
	pdf  Engine
}

// NewEngines wires the three engine variants. layout is the external
// collaborator that converts rendered HTML into fixed-layout output.
func NewEngines(layout FixedLayoutRenderer) *Engines {
	return &Engines{
		html: NewHTMLEngine(layout),
		docx: NewDocxEngine(),
		pdf:  NewPDFEngine(),
	}
}

// ForType returns the engine handling the given template file type.
func (e *Engines) ForType(ft model.FileType) (Engine, error) {
	switch ft {
	case model.FileTypeHTML:
		return e.html, nil
	case model.FileTypeDOCX:
		return e.docx, nil
	case model.FileTypePDF:
		return e.pdf, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ft)
	}
}
