package postprocess

import (
	"context"
	"fmt"

	"docforge/internal/logger"
	"docforge/internal/model"
)

// Package postprocess applies the optional transformations between
// rendering and storage: watermarking, then encryption, in that fixed
// order. Encrypting first would make watermark insertion on protected
// bytes invalid, so the order is not configurable.

// Options selects the stages to run for one document.
type Options struct {
	// Watermark is the overlay text; empty disables the stage.
	Watermark string
	// Encrypt enables the encryption stage.
	Encrypt bool
}

// Result is the outcome of the chain.
type Result struct {
	Content []byte
	// Degraded is true when the watermark stage failed and the original
	// bytes were kept. Callers surface this through document metadata.
	Degraded        bool
	Encrypted       bool
	EncryptionKeyID string
}

// Encrypter is the injected cryptographic collaborator for formats with a
// whole-document cipher.
type Encrypter interface {
	Encrypt(ctx context.Context, content []byte) ([]byte, error)
	// KeyID identifies the credentials used, recorded on the document.
	KeyID() string
}

// Chain runs the post-processing stages over rendered bytes. Stages only
// apply to formats that support them; requesting a stage on an
// unsupported format is a no-op, not an error.
type Chain struct {
	encrypter Encrypter
	log       *logger.Logger
}

// NewChain builds the post-processing chain.
func NewChain(encrypter Encrypter, log *logger.Logger) *Chain {
	return &Chain{encrypter: encrypter, log: log}
}

// Apply runs the selected stages on content of the given format.
// Watermark failures degrade gracefully (original bytes, Degraded=true);
// encryption failures abort, since silently storing plaintext the caller
// asked to protect is not an acceptable fallback.
func (c *Chain) Apply(ctx context.Context, content []byte, ft model.FileType, opts Options) (Result, error) {
	res := Result{Content: content}

	if opts.Watermark != "" && ft == model.FileTypePDF {
		marked, err := watermarkPDF(content, opts.Watermark)
		if err != nil {
			c.log.Warn("watermark failed, keeping original bytes", "error", err)
			res.Degraded = true
		} else {
			res.Content = marked
		}
	}

	if opts.Encrypt {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		switch ft {
		case model.FileTypePDF:
			encrypted, err := c.encrypter.Encrypt(ctx, res.Content)
			if err != nil {
				return Result{}, fmt.Errorf("encrypt pdf: %w", err)
			}
			res.Content = encrypted
			res.Encrypted = true
			res.EncryptionKeyID = c.encrypter.KeyID()
		case model.FileTypeDOCX:
			// docx has no native whole-document cipher here; an
			// edit-restriction flag is applied instead.
			restricted, err := restrictEditing(res.Content)
			if err != nil {
				return Result{}, fmt.Errorf("restrict docx editing: %w", err)
			}
			res.Content = restricted
			res.Encrypted = true
			res.EncryptionKeyID = c.encrypter.KeyID()
		default:
			// Unsupported format: no-op.
		}
	}

	return res, nil
}
