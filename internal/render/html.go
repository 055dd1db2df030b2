package render

import (
	"context"
	"fmt"

	"github.com/cbroglie/mustache"

	"docforge/internal/model"
)

// FixedLayoutRenderer converts rendered HTML into a fixed page-description
// format (PDF). It is an injected capability, not part of this package's
// rendering logic.
type FixedLayoutRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// htmlEngine renders an HTML template body with mustache substitution and
// converts the result to fixed layout. Missing variables render as empty
// strings rather than failing; sections provide loops and conditionals.
type htmlEngine struct {
	layout FixedLayoutRenderer
}

// NewHTMLEngine builds the html variant on top of the given layout
// collaborator.
func NewHTMLEngine(layout FixedLayoutRenderer) Engine {
	return &htmlEngine{layout: layout}
}

func (e *htmlEngine) OutputType() model.FileType {
	return model.FileTypePDF
}

func (e *htmlEngine) Render(ctx context.Context, templateContent []byte, data map[string]any) ([]byte, error) {
	tmpl, err := mustache.ParseString(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateSyntax, err)
	}

	rendered, err := tmpl.Render(data)
	if err != nil {
		return nil, fmt.Errorf("render html template: %w", err)
	}

	out, err := e.layout.RenderHTML(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("fixed layout conversion: %w", err)
	}
	return out, nil
}

// RenderText runs the mustache substitution alone, without layout
// conversion. Exposed for previews and tests.
func RenderText(templateContent string, data map[string]any) (string, error) {
	tmpl, err := mustache.ParseString(templateContent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateSyntax, err)
	}
	return tmpl.Render(data)
}
