package postprocess

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"docforge/internal/config"
	"docforge/internal/ooxml"
)

// pdfEncrypter applies AES-256 user/owner password protection to PDF
// bytes. The user password is left empty so documents open for reading;
// the owner password gates modification.
type pdfEncrypter struct {
	ownerPassword string
	keyID         string
}

// NewPDFEncrypter builds the default PDF encrypter from configuration.
func NewPDFEncrypter(cfg config.CryptoConfig) Encrypter {
	return &pdfEncrypter{ownerPassword: cfg.OwnerPassword, keyID: cfg.KeyID}
}

func (e *pdfEncrypter) Encrypt(ctx context.Context, content []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := pdfmodel.NewAESConfiguration("", e.ownerPassword, 256)

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(content), &out, conf); err != nil {
		return nil, fmt.Errorf("aes encrypt: %w", err)
	}
	return out.Bytes(), nil
}

func (e *pdfEncrypter) KeyID() string {
	return e.keyID
}

const settingsPart = "word/settings.xml"

const documentProtection = `<w:documentProtection w:edit="readOnly" w:enforcement="1"/>`

const minimalSettings = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	documentProtection +
	`</w:settings>`

// restrictEditing marks the docx as read-only by injecting a document
// protection element into word/settings.xml, creating the part when the
// template never carried one.
func restrictEditing(content []byte) ([]byte, error) {
	return ooxml.ReplaceEntry(content, settingsPart, true, func(settings []byte) ([]byte, error) {
		if settings == nil {
			return []byte(minimalSettings), nil
		}
		s := string(settings)
		if strings.Contains(s, "<w:documentProtection") {
			return settings, nil
		}
		idx := strings.LastIndex(s, "</w:settings>")
		if idx < 0 {
			return nil, fmt.Errorf("malformed %s", settingsPart)
		}
		return []byte(s[:idx] + documentProtection + s[idx:]), nil
	})
}
