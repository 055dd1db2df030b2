package ooxml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Package ooxml holds the low-level helpers for editing Office Open XML
// containers (docx). An OOXML file is a zip archive; editing one part
// means rewriting that entry and copying every other entry through
// byte-identical.

// ReadEntry returns the contents of the named entry, or an error if the
// archive is not a readable zip or the entry is absent.
func ReadEntry(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open ooxml container: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found", name)
}

// ReplaceEntry rewrites the named entry through transform and returns the
// resulting archive. All other entries are copied unchanged. If the entry
// does not exist and create is true, transform receives nil and its
// output is appended as a new entry.
func ReplaceEntry(archive []byte, name string, create bool, transform func([]byte) ([]byte, error)) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open ooxml container: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	found := false

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}

		if f.Name == name {
			found = true
			if content, err = transform(content); err != nil {
				return nil, err
			}
		}

		hdr := f.FileHeader
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return nil, fmt.Errorf("write entry %s: %w", f.Name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", f.Name, err)
		}
	}

	if !found {
		if !create {
			return nil, fmt.Errorf("entry %s not found", name)
		}
		content, err := transform(nil)
		if err != nil {
			return nil, err
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("create entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize ooxml container: %w", err)
	}
	return buf.Bytes(), nil
}
