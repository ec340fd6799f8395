// ABOUTME: Container markup for the widget with a no-script fallback link
// ABOUTME: The fallback message is admin-supplied Markdown rendered by goldmark

package disqus

import (
	"bytes"
	"html/template"
	"net/url"

	"github.com/yuin/goldmark"
)

// DefaultNoScriptMessage is shown when settings carry no message.
const DefaultNoScriptMessage = "Please enable JavaScript to view the comments."

var wrapperTemplate = template.Must(template.New("wrapper").Parse(
	`<div id="disqus_thread"></div>` +
		`<noscript>{{.Message}}` +
		`{{if .Link}}<p><a href="{{.Link}}">View the discussion thread.</a></p>{{end}}` +
		`</noscript>`))

var markdown = goldmark.New()

// threadLink points at the hosted thread page for domain, or "" when domain
// is not set.
func threadLink(domain, pageURL string) string {
	if domain == "" {
		return ""
	}
	u := url.URL{Scheme: "https", Host: domain + ".disqus.com", Path: "/"}
	q := url.Values{}
	q.Set("url", pageURL)
	u.RawQuery = q.Encode()
	return u.String()
}

// renderMessage converts the Markdown message to HTML. On failure the
// message is escaped as plain text.
func renderMessage(msg string) template.HTML {
	if msg == "" {
		msg = DefaultNoScriptMessage
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(msg), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(msg))
	}
	return template.HTML(buf.String())
}

// renderWrapper builds the container the widget script mounts into.
func renderWrapper(domain, pageURL, message string) (template.HTML, error) {
	var buf bytes.Buffer
	err := wrapperTemplate.Execute(&buf, struct {
		Message template.HTML
		Link    string
	}{
		Message: renderMessage(message),
		Link:    threadLink(domain, pageURL),
	})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
