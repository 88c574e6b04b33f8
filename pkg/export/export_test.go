package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

var fixedNow = time.Date(2026, 3, 8, 9, 30, 0, 0, time.UTC)

func testView() View {
	sketch := image.NewRGBA(image.Rect(0, 0, 960, 400))
	sketch.Set(10, 10, color.RGBA{0xef, 0x44, 0x44, 0xff})

	return View{
		ProjectTitle: "Wasserschaden Muster",
		RoomName:     "Küche",
		Metadata:     models.SessionMetadata{Date: "2026-03-08", Temperature: "21", Humidity: "55", DeviceName: "Gann Hydromette"},
		Points: []models.MeasurementPoint{
			{ID: uuid.New(), PointName: "Messpunkt 1", WallValue: "12.5"},
			{ID: uuid.New(), PointName: "Messpunkt 2", Notes: "Sockel hinter der Tür, sehr lange Bemerkung die abgeschnitten wird"},
		},
		Sketch:  sketch,
		Created: fixedNow,
	}
}

func TestRenderSizeAndSketchPlacement(t *testing.T) {
	v := testView()
	l := computeLayout(v)

	img, err := Render(v, RenderOptions{Scale: 2})
	require.NoError(t, err)

	assert.Equal(t, l.width*2, img.Bounds().Dx())
	assert.Equal(t, l.height*2, img.Bounds().Dy())
	assert.Equal(t, 1000*2, img.Bounds().Dx())

	x, y := (l.sketch.Min.X+10)*2, (l.sketch.Min.Y+10)*2
	assert.Equal(t, color.RGBA{0xef, 0x44, 0x44, 0xff}, img.RGBAAt(x, y))
	assert.Equal(t, color.RGBA{0xef, 0x44, 0x44, 0xff}, img.RGBAAt(x+1, y+1), "integer scale replicates pixels")

	// transparent sketch pixels render on white
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.RGBAAt((l.sketch.Min.X+500)*2, (l.sketch.Min.Y+200)*2))
}

func TestRenderGrowsWithPoints(t *testing.T) {
	v := testView()
	short, err := Render(v, RenderOptions{Scale: 1})
	require.NoError(t, err)

	v.Points = append(v.Points, models.MeasurementPoint{PointName: "Messpunkt 3"})
	tall, err := Render(v, RenderOptions{Scale: 1})
	require.NoError(t, err)

	assert.Equal(t, rowHeight, tall.Bounds().Dy()-short.Bounds().Dy())
}

func TestRenderWithoutSketch(t *testing.T) {
	v := testView()
	v.Sketch = nil

	img, err := Render(v, RenderOptions{Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, minContentWidth+2*padding, img.Bounds().Dx())
}

func TestRenderInvalidScale(t *testing.T) {
	_, err := Render(testView(), RenderOptions{Scale: MaxScale + 1})
	assert.Error(t, err)

	_, err = Render(testView(), RenderOptions{Scale: -1})
	assert.Error(t, err)
}

func TestFooter(t *testing.T) {
	assert.Equal(t, "Erstellt mit Q-Tool | 08.03.2026", testView().Footer())
}

func TestFileName(t *testing.T) {
	testCases := []struct {
		name    string
		project string
		room    string
		format  Format
		want    string
	}{
		{"project and room", "Muster AG", "Küche", FormatPDF, "Messprotokoll_Muster_AG_Küche.pdf"},
		{"no project", "", "Bad", FormatPNG, "Messprotokoll_Neu_Bad.png"},
		{"no room uses timestamp", "Muster", " ", FormatPNG, "Messprotokoll_Muster_1772962200000.png"},
		{"path characters removed", "a/b", "../x", FormatPDF, "Messprotokoll_a_b_x.pdf"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FileName(tc.project, tc.room, tc.format, fixedNow))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("jpeg")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, FormatPDF, all[0].Format())
	assert.Equal(t, FormatPNG, all[1].Format())

	_, ok := r.Get(Format("tiff"))
	assert.False(t, ok)

	r.Register(nil)
	assert.Len(t, r.All(), 2)
}

func TestCapturePNG(t *testing.T) {
	a, err := Capture(testView(), FormatPNG, CaptureOptions{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, "Messprotokoll_Wasserschaden_Muster_Küche.png", a.Name)

	img, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, 2000, img.Bounds().Dx())
}

var pageObject = regexp.MustCompile(`/Type /Page\b[^s]`)

func TestCapturePDFSinglePage(t *testing.T) {
	a, err := Capture(testView(), FormatPDF, CaptureOptions{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", a.ContentType)
	assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF")))
	assert.Len(t, pageObject.FindAll(a.Data, -1), 1)
}

func TestPDFPageGrowsForTallImages(t *testing.T) {
	tall := image.NewRGBA(image.Rect(0, 0, 100, 1000))

	var buf bytes.Buffer
	require.NoError(t, PDFEncoder{}.Encode(&buf, tall))

	assert.Len(t, pageObject.FindAll(buf.Bytes(), -1), 1)
	assert.Contains(t, buf.String(), "/MediaBox [0 0 595.28 ")
}

func TestPDFEmptyImage(t *testing.T) {
	err := PDFEncoder{}.Encode(io.Discard, image.NewRGBA(image.Rectangle{}))
	assert.Error(t, err)
}

func TestCaptureUnknownFormat(t *testing.T) {
	_, err := Capture(testView(), FormatPDF, CaptureOptions{Registry: NewRegistry()})
	assert.Error(t, err)
}
