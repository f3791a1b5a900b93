package document

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const (
	// ContainerID is the element every renderer rasterizes
	ContainerID = "og-container"
	// TaglineID is the text row below the logo
	TaglineID = "slogan"

	Width  = 1200
	Height = 630

	FontFamily      = "Manrope"
	FontSize        = 64
	TaglineMargin   = 20
	LogoMaxFraction = 0.5
	Background      = "#ffffff"
	Foreground      = "#000000"

	// Revision changes whenever the markup below changes so cached renders are invalidated
	Revision = "2"
)

// Card describes the content of one preview image
type Card struct {
	LogoURI    string
	FontURI    string
	FontFormat string
	Tagline    string
}

type templateData struct {
	ContainerID string
	TaglineID   string
	Width       int
	Height      int
	FontFamily  string
	FontSize    int
	Margin      int
	LogoMax     string
	Background  string
	Foreground  string
	FontSrc     template.CSS
	Logo        template.URL
	Tagline     string
}

var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8" />
    <style>
      @font-face {
        font-family: '{{.FontFamily}}';
        src: {{.FontSrc}};
        font-weight: 100 900;
        font-style: normal;
      }
      body,html { margin: 0; padding: 0; }
      #{{.ContainerID}} {
        width: {{.Width}}px;
        height: {{.Height}}px;
        display: flex;
        flex-direction: column;
        justify-content: center;
        align-items: center;
        background-color: {{.Background}};
      }
      #{{.ContainerID}} img {
        max-width: {{.LogoMax}};
        max-height: {{.LogoMax}};
      }
      #{{.TaglineID}} {
        font-family: '{{.FontFamily}}', sans-serif;
        font-size: {{.FontSize}}px;
        color: {{.Foreground}};
        margin-top: {{.Margin}}px;
      }
    </style>
  </head>
  <body>
    <div id="{{.ContainerID}}">
      <img src="{{.Logo}}" alt="Logo" />
      {{- if .Tagline}}
      <div id="{{.TaglineID}}">{{.Tagline}}</div>
      {{- end}}
    </div>
  </body>
</html>
`))

// Build renders the self-contained HTML document for a card. The logo and font
// must already be data URIs so the page never fetches anything.
func Build(card Card) (string, error) {
	if !strings.HasPrefix(card.LogoURI, "data:") {
		return "", fmt.Errorf("logo must be a data URI")
	}
	if !strings.HasPrefix(card.FontURI, "data:") {
		return "", fmt.Errorf("font must be a data URI")
	}
	format := card.FontFormat
	if format == "" {
		format = "truetype"
	}

	data := templateData{
		ContainerID: ContainerID,
		TaglineID:   TaglineID,
		Width:       Width,
		Height:      Height,
		FontFamily:  FontFamily,
		FontSize:    FontSize,
		Margin:      TaglineMargin,
		LogoMax:     fmt.Sprintf("%d%%", int(LogoMaxFraction*100)),
		Background:  Background,
		Foreground:  Foreground,
		FontSrc:     template.CSS(fmt.Sprintf("url('%s') format('%s')", card.FontURI, format)),
		Logo:        template.URL(card.LogoURI),
		Tagline:     card.Tagline,
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render card document: %w", err)
	}
	return buf.String(), nil
}
