package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/vircadia/ogimage/datauri"
	"github.com/vircadia/ogimage/document"
)

const testSVG = `<?xml version="1.0"?>
<svg width="200" height="100" viewBox="0 0 200 100" xmlns="http://www.w3.org/2000/svg">
    <rect width="200" height="100" fill="blue"/>
</svg>`

// solidPNG returns an encoded w x h PNG filled with c
func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeTestPNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

// testJob returns a fully populated job for the standard card
func testJob(t *testing.T, tagline string) *Job {
	t.Helper()
	logo := solidPNG(t, 400, 400, color.RGBA{R: 200, A: 255})
	html, err := document.Build(document.Card{
		LogoURI:    datauri.Encode("image/png", logo),
		FontURI:    datauri.Encode("font/ttf", goregular.TTF),
		FontFormat: "truetype",
		Tagline:    tagline,
	})
	require.NoError(t, err)

	job := NewJob(html)
	job.Logo = logo
	job.LogoMIME = "image/png"
	job.Font = goregular.TTF
	job.Tagline = tagline
	return job
}

// fakeRenderer records calls and returns a canned result
type fakeRenderer struct {
	name      string
	available bool
	png       []byte
	err       error
	calls     int
}

func (f *fakeRenderer) Name() string      { return f.name }
func (f *fakeRenderer) IsAvailable() bool { return f.available }

func (f *fakeRenderer) Render(ctx context.Context, job *Job) ([]byte, error) {
	f.calls++
	return f.png, f.err
}
