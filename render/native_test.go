package render

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vircadia/ogimage/document"
)

func TestNativeRenderer_Dimensions(t *testing.T) {
	renderer := NewNativeRenderer()

	for name, tagline := range map[string]string{
		"short": "Reactivity layer for games.",
		"empty": "",
		"long":  strings.Repeat("a very long tagline that keeps going ", 20),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := renderer.Render(context.Background(), testJob(t, tagline))
			require.NoError(t, err)
			assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, data[:4])

			img := decodeTestPNG(t, data)
			assert.Equal(t, image.Rect(0, 0, document.Width, document.Height), img.Bounds())
		})
	}
}

func TestNativeRenderer_LogoAspectRatios(t *testing.T) {
	renderer := NewNativeRenderer()

	for name, size := range map[string][2]int{
		"wide":  {3000, 100},
		"tall":  {100, 3000},
		"small": {10, 10},
	} {
		t.Run(name, func(t *testing.T) {
			job := testJob(t, "tagline")
			job.Logo = solidPNG(t, size[0], size[1], color.Black)

			data, err := renderer.Render(context.Background(), job)
			require.NoError(t, err)
			img := decodeTestPNG(t, data)
			assert.Equal(t, document.Width, img.Bounds().Dx())
			assert.Equal(t, document.Height, img.Bounds().Dy())
		})
	}
}

func TestNativeRenderer_Deterministic(t *testing.T) {
	renderer := NewNativeRenderer()

	first, err := renderer.Render(context.Background(), testJob(t, "Reactivity layer for games."))
	require.NoError(t, err)
	second, err := renderer.Render(context.Background(), testJob(t, "Reactivity layer for games."))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNativeRenderer_EmptyTaglineHasNoTextRow(t *testing.T) {
	renderer := NewNativeRenderer()
	job := testJob(t, "")

	data, err := renderer.Render(context.Background(), job)
	require.NoError(t, err)
	img := decodeTestPNG(t, data)

	// the 400x400 logo is scaled to 315x315 and centred, nothing else is drawn
	logoTop := (document.Height - 315) / 2
	for y := 0; y < document.Height; y++ {
		if y >= logoTop-1 && y <= logoTop+316 {
			continue
		}
		for x := 0; x < document.Width; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff {
				t.Fatalf("unexpected non-background pixel at %d,%d", x, y)
			}
		}
	}
}

func TestNativeRenderer_DrawsTagline(t *testing.T) {
	renderer := NewNativeRenderer()
	job := testJob(t, "Reactivity layer for games.")
	job.Logo = nil

	data, err := renderer.Render(context.Background(), job)
	require.NoError(t, err)
	img := decodeTestPNG(t, data)

	dark := 0
	for y := 0; y < document.Height; y++ {
		for x := 0; x < document.Width; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 100, "expected tagline glyphs to be drawn")
}

func TestNativeRenderer_SVGLogo(t *testing.T) {
	renderer := NewNativeRenderer()
	job := testJob(t, "")
	job.Logo = []byte(testSVG)
	job.LogoMIME = "image/svg+xml"

	data, err := renderer.Render(context.Background(), job)
	require.NoError(t, err)
	img := decodeTestPNG(t, data)

	// the 2:1 svg becomes 200x100 centred; its centre is blue
	r, g, b, _ := img.At(document.Width/2, document.Height/2).RGBA()
	assert.Less(t, r, uint32(0x1000))
	assert.Less(t, g, uint32(0x1000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestNativeRenderer_InvalidFont(t *testing.T) {
	job := testJob(t, "tagline")
	job.Font = []byte("not a font")

	_, err := NewNativeRenderer().Render(context.Background(), job)
	var rendererErr *RendererError
	require.ErrorAs(t, err, &rendererErr)
	assert.Equal(t, "load font", rendererErr.Operation)
}

func TestNativeRenderer_InvalidLogo(t *testing.T) {
	job := testJob(t, "tagline")
	job.Logo = []byte("not an image")

	_, err := NewNativeRenderer().Render(context.Background(), job)
	var rendererErr *RendererError
	require.ErrorAs(t, err, &rendererErr)
	assert.Equal(t, "decode logo", rendererErr.Operation)
}

func TestNativeRenderer_MissingTarget(t *testing.T) {
	job := testJob(t, "tagline")
	job.TargetID = ""

	_, err := NewNativeRenderer().Render(context.Background(), job)
	assert.ErrorIs(t, err, ErrRenderTargetMissing)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{400, 400, 600, 315, 315, 315},
		{1200, 100, 600, 315, 600, 50},
		{100, 100, 600, 315, 100, 100},
		{10000, 1, 600, 315, 600, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}
