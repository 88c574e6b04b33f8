package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
)

// Format is the file format of an exported artifact
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat converts a format name to a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("invalid export format: %s (valid: png, pdf)", s)
}

// Encoder turns a rendered editor view into a file
type Encoder interface {
	// Format returns the format this encoder produces
	Format() Format

	// ContentType returns the MIME type of the produced file
	ContentType() string

	// Encode writes img to w
	Encode(w io.Writer, img image.Image) error
}

// Registry holds the available encoders
type Registry struct {
	mu       sync.RWMutex
	encoders map[Format]Encoder
}

// NewRegistry creates an empty encoder registry
func NewRegistry() *Registry {
	return &Registry{
		encoders: make(map[Format]Encoder),
	}
}

// DefaultRegistry returns a registry with the PNG and PDF encoders
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(PNGEncoder{})
	r.Register(PDFEncoder{})
	return r
}

// Register adds an encoder to the registry
func (r *Registry) Register(e Encoder) {
	if e == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.encoders[e.Format()] = e
}

// Get retrieves an encoder by format
func (r *Registry) Get(f Format) (Encoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.encoders[f]
	return e, ok
}

// All returns all registered encoders ordered by format
func (r *Registry) All() []Encoder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	encoders := make([]Encoder, 0, len(r.encoders))
	for _, e := range r.encoders {
		encoders = append(encoders, e)
	}
	sort.Slice(encoders, func(i, j int) bool {
		return encoders[i].Format() < encoders[j].Format()
	})
	return encoders
}

// PNGEncoder writes the view as a PNG image
type PNGEncoder struct{}

func (PNGEncoder) Format() Format      { return FormatPNG }
func (PNGEncoder) ContentType() string { return "image/png" }

func (PNGEncoder) Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// PDFEncoder embeds the view as the only page of a PDF document. The image
// spans the page width and keeps its aspect ratio; the page is made taller
// than the base size when the image would not fit.
type PDFEncoder struct {
	// PageSize is an fpdf page size name, A4 when empty
	PageSize string
	// CreationDate is written to the document info when set
	CreationDate time.Time
}

func (PDFEncoder) Format() Format      { return FormatPDF }
func (PDFEncoder) ContentType() string { return "application/pdf" }

func (e PDFEncoder) Encode(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("failed to encode pdf: empty image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode page image: %w", err)
	}

	pageSize := e.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}

	pdf := fpdf.New("P", "mm", pageSize, "")
	if !e.CreationDate.IsZero() {
		pdf.SetCreationDate(e.CreationDate)
		pdf.SetModificationDate(e.CreationDate)
	}

	pageW, pageH := pdf.GetPageSize()
	imgH := float64(b.Dy()) * pageW / float64(b.Dx())
	if imgH > pageH {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: pageW, Ht: imgH})
	} else {
		pdf.AddPage()
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("view", opts, &buf)
	pdf.ImageOptions("view", 0, 0, pageW, imgH, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// Extension returns the file extension for f
func (f Format) Extension() string {
	return "." + string(f)
}
