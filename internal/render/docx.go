package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"docforge/internal/model"
	"docforge/internal/ooxml"
)

const documentPart = "word/document.xml"

// docxEngine substitutes placeholders inside the main document part of an
// OOXML word file. Substitution is two-tier per paragraph:
//
//	tier 1: a placeholder fully contained in a single run's text node is
//	        replaced in place, preserving the run's formatting;
//	tier 2: a placeholder spanning multiple runs (still present in the
//	        paragraph's concatenated text after tier 1) forces a rebuild
//	        of that paragraph as one run carrying the first run's
//	        properties, trading per-character formatting for correctness
//	        in that paragraph only.
//
// Table cell paragraphs are ordinary <w:p> elements inside the same part,
// so both tiers cover them as well. Placeholders with no matching key are
// left verbatim.
type docxEngine struct{}

// NewDocxEngine builds the docx variant.
func NewDocxEngine() Engine {
	return &docxEngine{}
}

func (e *docxEngine) OutputType() model.FileType {
	return model.FileTypeDOCX
}

var (
	paragraphRe = regexp.MustCompile(`(?s)<w:p(?:>|\s[^>]*[^/]>).*?</w:p>`)
	runRe       = regexp.MustCompile(`(?s)<w:r(?:>|\s[^>]*[^/]>).*?</w:r>`)
	textRe      = regexp.MustCompile(`(?s)(<w:t(?:>|\s[^>]*>))(.*?)(</w:t>)`)
	pPrRe       = regexp.MustCompile(`(?s)<w:pPr(?:>|\s[^>]*[^/]>).*?</w:pPr>|<w:pPr\s*/>`)
	rPrRe       = regexp.MustCompile(`(?s)<w:rPr(?:>|\s[^>]*[^/]>).*?</w:rPr>|<w:rPr\s*/>`)
	pOpenRe     = regexp.MustCompile(`^<w:p(?:>|\s[^>]*>)`)
)

func (e *docxEngine) Render(ctx context.Context, templateContent []byte, data map[string]any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := ooxml.ReplaceEntry(templateContent, documentPart, false, func(doc []byte) ([]byte, error) {
		return []byte(substituteDocument(string(doc), data)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("render docx template: %w", err)
	}
	return out, nil
}

func substituteDocument(doc string, data map[string]any) string {
	return paragraphRe.ReplaceAllStringFunc(doc, func(paragraph string) string {
		return substituteParagraph(paragraph, data)
	})
}

func substituteParagraph(paragraph string, data map[string]any) string {
	if !containsAnyPlaceholder(paragraphText(paragraph), data) {
		return paragraph
	}

	// Tier 1: replace placeholders confined to a single run.
	replaced := textRe.ReplaceAllStringFunc(paragraph, func(textElem string) string {
		parts := textRe.FindStringSubmatch(textElem)
		text := parts[2]
		for key, value := range data {
			text = strings.ReplaceAll(text, placeholder(key), escapeXMLText(stringify(value)))
		}
		return parts[1] + text + parts[3]
	})

	// Tier 2: anything still left spans run boundaries.
	if containsAnyPlaceholder(paragraphText(replaced), data) {
		return rebuildParagraph(replaced, data)
	}
	return replaced
}

// paragraphText is the visible text of the paragraph: the concatenation
// of its run text nodes.
func paragraphText(paragraph string) string {
	var sb strings.Builder
	for _, m := range textRe.FindAllStringSubmatch(paragraph, -1) {
		sb.WriteString(m[2])
	}
	return sb.String()
}

func containsAnyPlaceholder(text string, data map[string]any) bool {
	for key := range data {
		if strings.Contains(text, placeholder(key)) {
			return true
		}
	}
	return false
}

// rebuildParagraph collapses the paragraph into a single run holding the
// fully substituted text. The paragraph's own properties are kept, and
// the first run's properties are reapplied to the rebuilt run.
func rebuildParagraph(paragraph string, data map[string]any) string {
	open := pOpenRe.FindString(paragraph)
	if open == "" {
		return paragraph
	}

	text := paragraphText(paragraph)
	for key, value := range data {
		text = strings.ReplaceAll(text, placeholder(key), escapeXMLText(stringify(value)))
	}

	var sb strings.Builder
	sb.WriteString(open)
	if pPr := pPrRe.FindString(paragraph); pPr != "" {
		sb.WriteString(pPr)
	}
	sb.WriteString("<w:r>")
	if firstRun := runRe.FindString(paragraph); firstRun != "" {
		if rPr := rPrRe.FindString(firstRun); rPr != "" {
			sb.WriteString(rPr)
		}
	}
	sb.WriteString(`<w:t xml:space="preserve">`)
	sb.WriteString(text)
	sb.WriteString("</w:t></w:r></w:p>")
	return sb.String()
}

func placeholder(key string) string {
	return "{{" + key + "}}"
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

var xmlTextEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeXMLText(s string) string {
	return xmlTextEscaper.Replace(s)
}
