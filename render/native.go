package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/vircadia/ogimage/document"
)

// NativeRenderer composes the card in pure Go. It does not run CSS, it reproduces
// the document layout: logo capped at half the card, tagline centred below it.
type NativeRenderer struct{}

// NewNativeRenderer creates a new native renderer
func NewNativeRenderer() *NativeRenderer {
	return &NativeRenderer{}
}

// Name returns the name of this renderer
func (r *NativeRenderer) Name() string {
	return BackendNative
}

// IsAvailable always reports true
func (r *NativeRenderer) IsAvailable() bool {
	return true
}

// Render draws the card and encodes it as PNG
func (r *NativeRenderer) Render(ctx context.Context, job *Job) ([]byte, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}

	logo, err := r.decodeLogo(job)
	if err != nil {
		return nil, NewRendererError(r.Name(), "decode logo", err)
	}

	face, err := newFace(job.Font, document.FontSize)
	if err != nil {
		return nil, NewRendererError(r.Name(), "load font", err)
	}
	defer face.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(job.Width, job.Height)
	dc.SetHexColor(document.Background)
	dc.Clear()
	dc.SetFontFace(face)

	var lines []string
	if job.Tagline != "" {
		lines = dc.WordWrap(job.Tagline, float64(job.Width))
	}

	metrics := face.Metrics()
	lineHeight := float64((metrics.Ascent + metrics.Descent).Ceil())
	ascent := float64(metrics.Ascent.Ceil())

	logoH := 0
	if logo != nil {
		logoH = logo.Bounds().Dy()
	}
	total := float64(logoH)
	if len(lines) > 0 {
		total += document.TaglineMargin + lineHeight*float64(len(lines))
	}
	top := math.Round((float64(job.Height) - total) / 2)

	if logo != nil {
		x := (job.Width - logo.Bounds().Dx()) / 2
		dc.DrawImage(logo, x, int(top))
	}

	dc.SetHexColor(document.Foreground)
	y := top + float64(logoH) + document.TaglineMargin + ascent
	for _, line := range lines {
		dc.DrawStringAnchored(line, float64(job.Width)/2, y, 0.5, 0)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, NewRendererError(r.Name(), "encode PNG", err)
	}
	return buf.Bytes(), nil
}

// decodeLogo returns the logo already scaled to fit within half the card
func (r *NativeRenderer) decodeLogo(job *Job) (image.Image, error) {
	if len(job.Logo) == 0 {
		return nil, nil
	}
	maxW := int(float64(job.Width) * document.LogoMaxFraction)
	maxH := int(float64(job.Height) * document.LogoMaxFraction)

	if job.LogoMIME == "image/svg+xml" {
		return rasterizeSVG(job.Logo, maxW, maxH)
	}

	src, _, err := image.Decode(bytes.NewReader(job.Logo))
	if err != nil {
		return nil, err
	}
	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), maxW, maxH)
	if w == src.Bounds().Dx() && h == src.Bounds().Dy() {
		return src, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

func rasterizeSVG(data []byte, maxW, maxH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	svgW, svgH := int(math.Round(icon.ViewBox.W)), int(math.Round(icon.ViewBox.H))
	if svgW <= 0 || svgH <= 0 {
		svgW, svgH = 100, 100
	}
	w, h := fitWithin(svgW, svgH, maxW, maxH)

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return rgba, nil
}

// fitWithin scales w x h down, keeping the aspect ratio, so it fits maxW x maxH. It never scales up.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := math.Min(1, math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h)))
	if scale == 1 {
		return w, h
	}
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}

// newFace parses the embedded font, falling back to Go Regular when none was supplied
func newFace(data []byte, size float64) (font.Face, error) {
	if len(data) == 0 {
		data = goregular.TTF
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
