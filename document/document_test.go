package document

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCard(tagline string) Card {
	return Card{
		LogoURI:    "data:image/png;base64,iVBORw0KGgo=",
		FontURI:    "data:font/ttf;base64,AAEAAA==",
		FontFormat: "truetype",
		Tagline:    tagline,
	}
}

func TestBuild(t *testing.T) {
	html, err := Build(testCard("Reactivity layer for games."))
	require.NoError(t, err)

	assert.Contains(t, html, `<div id="og-container">`)
	assert.Contains(t, html, `<div id="slogan">Reactivity layer for games.</div>`)
	assert.Contains(t, html, "width: 1200px;")
	assert.Contains(t, html, "height: 630px;")
	assert.Contains(t, html, "max-width: 50%;")
	assert.Contains(t, html, "font-size: 64px;")
	assert.Contains(t, html, "src: url('data:font/ttf;base64,AAEAAA==') format('truetype');")
	assert.Contains(t, html, `src="data:image/png;base64,iVBORw0KGgo="`)
}

func TestBuildIsHermetic(t *testing.T) {
	html, err := Build(testCard("Reactivity layer for games."))
	require.NoError(t, err)

	external := regexp.MustCompile(`(?i)(https?:|//[a-z0-9.-]+\.[a-z]{2,}/)`)
	assert.False(t, external.MatchString(html), "document references an external resource")
}

func TestBuildEscapesTagline(t *testing.T) {
	html, err := Build(testCard(`<script>alert("x")</script> & more`))
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "&amp; more")
}

func TestBuildEmptyTagline(t *testing.T) {
	html, err := Build(testCard(""))
	require.NoError(t, err)

	assert.Contains(t, html, `<div id="og-container">`)
	assert.NotContains(t, html, `<div id="slogan">`)
}

func TestBuildRejectsPathReferences(t *testing.T) {
	card := testCard("tagline")
	card.LogoURI = "../static/img/logo.png"
	_, err := Build(card)
	assert.Error(t, err)

	card = testCard("tagline")
	card.FontURI = "/fonts/Manrope.ttf"
	_, err = Build(card)
	assert.Error(t, err)
}

func TestBuildDefaultsFontFormat(t *testing.T) {
	card := testCard("tagline")
	card.FontFormat = ""
	html, err := Build(card)
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "format('truetype')"))
}

func TestBuildSnapshot(t *testing.T) {
	html, err := Build(testCard("Reactivity layer for games."))
	require.NoError(t, err)
	snaps.MatchSnapshot(t, html)
}

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}
