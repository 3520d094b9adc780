package notification

import (
	"bytes"
	"embed"
	htmltmpl "html/template"
	"strings"
	texttmpl "text/template"
)

//go:embed templates/digest.txt templates/digest.html
var templateFS embed.FS

// Message is what the mail transport delivers for one digest.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	Text      string
	HTML      string
}

// RendererConfig carries the branding shown in every digest.
type RendererConfig struct {
	AppName      string
	DashboardURL string
}

// Renderer turns digests into text and HTML bodies.
type Renderer struct {
	cfg  RendererConfig
	text *texttmpl.Template
	html *htmltmpl.Template
}

func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.AppName == "" {
		cfg.AppName = "Student Life Organizer"
	}
	if cfg.DashboardURL == "" {
		cfg.DashboardURL = "http://127.0.0.1:8080"
	}

	funcs := map[string]interface{}{"upper": strings.ToUpper}

	text, err := texttmpl.New("digest.txt").Funcs(funcs).ParseFS(templateFS, "templates/digest.txt")
	if err != nil {
		return nil, err
	}
	html, err := htmltmpl.New("digest.html").Funcs(funcs).ParseFS(templateFS, "templates/digest.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{cfg: cfg, text: text.Option("missingkey=error"), html: html}, nil
}

// MustRenderer panics if the embedded templates fail to parse.
func MustRenderer(cfg RendererConfig) *Renderer {
	r, err := NewRenderer(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(d Digest) (Message, error) {
	data := struct {
		AppName      string
		DashboardURL string
		Digest       Digest
	}{r.cfg.AppName, r.cfg.DashboardURL, d}

	var text, html bytes.Buffer
	if err := r.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := r.html.Execute(&html, data); err != nil {
		return Message{}, err
	}

	return Message{
		ToAddress: d.Recipient.Email,
		ToName:    d.Recipient.Username,
		Subject:   d.Subject,
		Text:      text.String(),
		HTML:      html.String(),
	}, nil
}
