// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// PDFReader reads the Title and Author entries of a PDF's document
// information dictionary using pdfcpu.
type PDFReader struct{}

// ReadMetadata parses body as a PDF and decodes the Title and Author
// entries of its information dictionary. The document is read without
// validation: each entry is decoded on its own, and an entry of the wrong
// type reads as empty instead of hiding the others.
func (PDFReader) ReadMetadata(body []byte) (meta Metadata, err error) {
	if len(body) == 0 {
		return Metadata{}, fmt.Errorf("empty document")
	}
	disableConfigDir.Do(api.DisableConfigDir)

	// pdfcpu can panic on malformed cross-reference data.
	defer func() {
		if r := recover(); r != nil {
			meta, err = Metadata{}, fmt.Errorf("pdfcpu read: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(body), conf)
	if err != nil {
		return Metadata{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	xrt := ctx.XRefTable
	if xrt == nil || xrt.Info == nil {
		return Metadata{}, nil
	}
	info, err := xrt.DereferenceDict(*xrt.Info)
	if err != nil || info == nil {
		return Metadata{}, nil
	}
	return Metadata{
		Title:  infoString(xrt, info, "Title"),
		Author: infoString(xrt, info, "Author"),
	}, nil
}

// infoString decodes one text entry of the information dictionary, or
// returns "" when it is missing or not a string.
func infoString(xrt *model.XRefTable, info types.Dict, key string) string {
	obj, ok := info.Find(key)
	if !ok || obj == nil {
		return ""
	}
	s, err := xrt.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
