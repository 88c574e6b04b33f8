package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Artifact is an exported file ready to be handed to the host
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Format      Format `json:"format"`
	Data        []byte `json:"-"`
}

// CaptureOptions configures Capture
type CaptureOptions struct {
	Render   RenderOptions
	Registry *Registry
	// Now stamps file names and PDF metadata, time.Now when nil
	Now func() time.Time
}

// Capture rasterizes v and encodes it in the given format
func Capture(v View, format Format, opts CaptureOptions) (Artifact, error) {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	enc, ok := registry.Get(format)
	if !ok {
		return Artifact{}, fmt.Errorf("no encoder registered for format %q", format)
	}
	if pdfEnc, ok := enc.(PDFEncoder); ok && pdfEnc.CreationDate.IsZero() {
		pdfEnc.CreationDate = now()
		enc = pdfEnc
	}

	img, err := Render(v, opts.Render)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to render view: %w", err)
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return Artifact{}, err
	}

	return Artifact{
		Name:        FileName(v.ProjectTitle, v.RoomName, format, now()),
		ContentType: enc.ContentType(),
		Format:      format,
		Data:        buf.Bytes(),
	}, nil
}

// FileName builds the artifact file name from the project and room. A
// missing project becomes "Neu"; a missing room is replaced by the unix
// timestamp in milliseconds.
func FileName(project, room string, format Format, now time.Time) string {
	p := sanitizeName(project)
	if p == "" {
		p = "Neu"
	}
	r := sanitizeName(room)
	if r == "" {
		r = strconv.FormatInt(now.UnixMilli(), 10)
	}
	return "Messprotokoll_" + p + "_" + r + format.Extension()
}

// sanitizeName keeps letters, digits, dash and dot; runs of anything else
// collapse to a single underscore
func sanitizeName(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.Trim(b.String(), "_.")
}
