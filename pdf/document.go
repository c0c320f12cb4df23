package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PageHandle is the part of a PDF page the transform rewrites need.
type PageHandle interface {
	Commands() ([]Command, error)
	SetCommands(cmds []Command) error
	MediaBox() PageGeometry
	SetMediaBox(g PageGeometry)
}

// Document is a PDF held in memory.
type Document struct {
	ctx *model.Context
}

// Page is one page of a Document. Changes are visible in the document's
// next Write.
type Page struct {
	doc   *Document
	nr    int
	dict  types.Dict
	media PageGeometry
}

// newConfiguration returns the pdfcpu configuration used for every read and
// write. Scanner software produces slightly broken files often enough that
// strict validation would reject real inputs.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ReadDocument reads and validates a PDF.
func ReadDocument(rs io.ReadSeeker) (*Document, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	return &Document{ctx: ctx}, nil
}

// ParseDocument is ReadDocument over a byte slice.
func ParseDocument(data []byte) (*Document, error) {
	return ReadDocument(bytes.NewReader(data))
}

// CountPages returns the number of pages of the PDF in data.
func CountPages(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

func (d *Document) checkPage(n int) error {
	if n < 1 || n > d.ctx.PageCount {
		return fmt.Errorf("%w: page %d of %d", ErrIndexOutOfRange, n, d.ctx.PageCount)
	}
	return nil
}

// Page returns page n, counting from 1.
func (d *Document) Page(n int) (*Page, error) {
	if err := d.checkPage(n); err != nil {
		return nil, err
	}
	dict, _, inh, err := d.ctx.PageDict(n, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("page %d: missing page dictionary", n)
	}

	p := &Page{doc: d, nr: n, dict: dict}
	box := inh.CropBox
	if box == nil {
		box = inh.MediaBox
	}
	if box != nil {
		p.media = PageGeometry{Width: box.Width(), Height: box.Height()}
	}
	return p, nil
}

// ExtractPage returns page n as a single-page PDF.
func (d *Document) ExtractPage(n int) ([]byte, error) {
	if err := d.checkPage(n); err != nil {
		return nil, err
	}
	ctx, err := pdfcpu.ExtractPages(d.ctx, []int{n}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract page %d: %w", n, err)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write page %d: %w", n, err)
	}
	return buf.Bytes(), nil
}

// Write serializes the document.
func (d *Document) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Content returns the decoded content stream of the page.
func (p *Page) Content() ([]byte, error) {
	content, err := p.doc.ctx.PageContent(p.dict, p.nr)
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", p.nr, err)
	}
	return content, nil
}

// Commands parses the content stream of the page.
func (p *Page) Commands() ([]Command, error) {
	content, err := p.Content()
	if err != nil {
		return nil, err
	}
	cmds, err := ParseContent(content)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", p.nr, err)
	}
	return cmds, nil
}

// SetCommands replaces the content stream of the page.
func (p *Page) SetCommands(cmds []Command) error {
	sd, err := p.doc.ctx.NewStreamDictForBuf(FormatContent(cmds))
	if err != nil {
		return fmt.Errorf("page %d: %w", p.nr, err)
	}
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("page %d: failed to encode content: %w", p.nr, err)
	}
	indRef, err := p.doc.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return fmt.Errorf("page %d: %w", p.nr, err)
	}
	p.dict["Contents"] = *indRef
	return nil
}

// MediaBox returns the visible page size.
func (p *Page) MediaBox() PageGeometry {
	return p.media
}

// SetMediaBox resizes the page, anchored at the origin. Any crop box is
// dropped so the media box is what viewers show.
func (p *Page) SetMediaBox(g PageGeometry) {
	p.dict["MediaBox"] = types.RectForWidthAndHeight(0, 0, g.Width, g.Height).Array()
	p.dict.Delete("CropBox")
	p.media = g
}

// Concat merges PDFs in order into w.
func Concat(w io.Writer, parts ...[]byte) error {
	switch len(parts) {
	case 0:
		return fmt.Errorf("%w: nothing to merge", ErrFileNotFound)
	case 1:
		_, err := w.Write(parts[0])
		return err
	}

	readers := make([]io.ReadSeeker, len(parts))
	for i, data := range parts {
		readers[i] = bytes.NewReader(data)
	}
	if err := api.MergeRaw(readers, w, false, newConfiguration()); err != nil {
		return fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return nil
}
