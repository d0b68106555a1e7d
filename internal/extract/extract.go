// Package extract pulls plain text out of uploaded documents so they can be
// chunked and embedded like any pasted text.
//
// PDF text is read with [github.com/ledongthuc/pdf]. DOCX and PPTX are Office
// Open XML containers, a zip of XML parts, and need no library: the text
// lives in `t` elements grouped into `p` paragraphs.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for filenames outside the supported set.
var ErrUnsupportedFormat = errors.New("extract: unsupported file type; use PDF, DOCX, or PPTX")

// ErrNoText is returned when a document parses but yields no text, e.g. a
// scanned PDF with no text layer.
var ErrNoText = errors.New("extract: document contains no extractable text")

// Result is the text pulled from one document.
type Result struct {
	// Content is the extracted text: units joined with blank lines.
	Content string

	// Units counts pages (PDF), paragraphs (DOCX), or slides (PPTX).
	Units int

	// Type is the detected document type: "pdf", "docx", or "pptx".
	Type string
}

// File extracts text from data, dispatching on the filename extension.
func File(filename string, data []byte) (*Result, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return PDF(data)
	case ".docx":
		return DOCX(data)
	case ".pptx":
		return PPTX(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// PDF extracts the text layer of a PDF, one entry per page.
func PDF(data []byte) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract: parse pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page without a usable text layer is skipped, not fatal.
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			pages = append(pages, t)
		}
	}
	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return &Result{
		Content: strings.Join(pages, "\n\n"),
		Units:   r.NumPage(),
		Type:    "pdf",
	}, nil
}

// DOCX extracts the paragraphs of a Word document, including table cell
// text, which OOXML stores as paragraphs inside the cells.
func DOCX(data []byte) (*Result, error) {
	doc, err := zipPart(data, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("extract: parse docx: %w", err)
	}
	paras, err := paragraphs(doc)
	if err != nil {
		return nil, fmt.Errorf("extract: parse docx: %w", err)
	}
	if len(paras) == 0 {
		return nil, ErrNoText
	}
	return &Result{
		Content: strings.Join(paras, "\n\n"),
		Units:   len(paras),
		Type:    "docx",
	}, nil
}

// PPTX extracts the text of every slide, in deck order, each slide prefixed
// with a "--- Slide N ---" header.
func PPTX(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract: parse pptx: %w", err)
	}

	// Slide parts are named slide1.xml, slide2.xml, ... and must be read in
	// numeric order, which lexical zip order does not give past slide 9.
	type slide struct {
		num  int
		data []byte
	}
	var slides []slide
	for _, f := range zr.File {
		var n int
		if _, err := fmt.Sscanf(f.Name, "ppt/slides/slide%d.xml", &n); err != nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract: parse pptx: open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract: parse pptx: read %s: %w", f.Name, err)
		}
		slides = append(slides, slide{num: n, data: content})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var parts []string
	for _, s := range slides {
		paras, err := paragraphs(s.data)
		if err != nil {
			return nil, fmt.Errorf("extract: parse pptx: slide %d: %w", s.num, err)
		}
		if len(paras) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Slide %d ---\n%s", s.num, strings.Join(paras, "\n")))
	}
	if len(parts) == 0 {
		return nil, ErrNoText
	}
	return &Result{
		Content: strings.Join(parts, "\n\n"),
		Units:   len(slides),
		Type:    "pptx",
	}, nil
}

// zipPart returns the named file from a zip archive.
func zipPart(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing %s", name)
}

// paragraphs walks an OOXML part and collects the text of each non-empty
// paragraph. Both WordprocessingML (w:p, w:t) and DrawingML (a:p, a:t) use
// the same local names, so one walker serves DOCX bodies and PPTX slides.
func paragraphs(doc []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))

	var (
		out   []string
		cur   strings.Builder
		inPar bool
		inTxt bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPar = true
			case "t":
				inTxt = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				inPar = false
				if s := strings.TrimSpace(cur.String()); s != "" {
					out = append(out, s)
				}
				cur.Reset()
			case "t":
				inTxt = false
			}
		case xml.CharData:
			if inPar && inTxt {
				cur.Write(t)
			}
		}
	}
	return out, nil
}
