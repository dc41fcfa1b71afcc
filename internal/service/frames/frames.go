// Package frames renders the Farcaster frame page for a shared chart.
package frames

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

const (
	DefaultPair     = "BTCUSDT"
	DefaultInterval = "1h"
)

var page = template.Must(template.New("frame").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta property="og:title" content="Terminal Cast: {{.Pair}} {{.Interval}}" />
    <meta property="og:image" content="{{.Image}}" />
    <meta property="fc:frame" content="vNext" />
    <meta property="fc:frame:image" content="{{.Image}}" />

    <meta property="fc:frame:button:1" content="Regen AI" />
    <meta property="fc:frame:button:1:action" content="link" />
    <meta property="fc:frame:button:1:target" content="{{.RegenTarget}}" />

    <meta property="fc:frame:button:2" content="Refresh Chart" />
    <meta property="fc:frame:button:2:action" content="link" />
    <meta property="fc:frame:button:2:target" content="{{.RefreshTarget}}" />

    <title>Terminal Cast: {{.Pair}}</title>
  </head>
  <body style="background: #000; color: #8b5cf6; font-family: monospace; display: flex; flex-direction: column; align-items: center; justify-content: center; height: 100vh; margin: 0;">
    <h1>{{.Pair}} {{.Interval}}</h1>
    <img src="{{.Image}}" alt="Chart" style="max-width: 90%; border: 1px solid #4c1d95;" />
    <p style="margin-top: 20px;">Terminal Cast by FALCORA</p>
  </body>
</html>
`))

// Frame is the data bound into the page.
type Frame struct {
	Pair          string
	Interval      string
	Image         string
	RegenTarget   string
	RefreshTarget string
}

// Renderer builds frame pages that link back to appURL.
type Renderer struct {
	appURL string
}

func NewRenderer(appURL string) *Renderer {
	return &Renderer{appURL: strings.TrimRight(appURL, "/")}
}

// Build fills defaults: BTCUSDT, 1h and the app's OG image.
func (r *Renderer) Build(pair, interval, img string) Frame {
	if pair == "" {
		pair = DefaultPair
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if img == "" {
		img = r.appURL + "/api/og"
	}

	return Frame{
		Pair:          pair,
		Interval:      interval,
		Image:         img,
		RegenTarget:   r.target(pair, interval, "ai"),
		RefreshTarget: r.target(pair, interval, "refresh"),
	}
}

// Render returns the escaped HTML document.
func (r *Renderer) Render(pair, interval, img string) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, r.Build(pair, interval, img)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FrameURL is the link embedded in a cast so clients render the frame.
func (r *Renderer) FrameURL(pair, interval, img string) string {
	q := url.Values{}
	q.Set("pair", pair)
	q.Set("interval", interval)
	if img != "" {
		q.Set("img", img)
	}
	return r.appURL + "/api/frames?" + q.Encode()
}

func (r *Renderer) target(pair, interval, action string) string {
	q := url.Values{}
	q.Set("pair", pair)
	q.Set("interval", interval)
	q.Set("action", action)
	return r.appURL + "?" + q.Encode()
}
