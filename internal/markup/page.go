package markup

import (
	"strings"

	"golang.org/x/net/html"

	"retronote/pkg/notedoc"
)

// PageOptions styles the surrounding page of an exported note. Empty fields
// are left to the browser.
type PageOptions struct {
	Title      string
	FontFamily string
	FontSize   string
	Color      string
	Background string
}

// Page renders doc as a standalone HTML document.
func Page(doc *notedoc.Document, opts PageOptions) string {
	title := opts.Title
	if title == "" {
		title = "Retro Notes"
	}
	var body []string
	if opts.FontFamily != "" {
		body = append(body, "font-family: "+opts.FontFamily)
	}
	if opts.FontSize != "" {
		size := opts.FontSize
		if !strings.HasSuffix(size, "px") {
			size += "px"
		}
		body = append(body, "font-size: "+size)
	}
	if opts.Color != "" {
		body = append(body, "color: "+opts.Color)
	}
	if opts.Background != "" {
		body = append(body, "background: "+opts.Background)
	}
	body = append(body, "white-space: pre-wrap")

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n</head>\n<body style=\"")
	b.WriteString(html.EscapeString(strings.Join(body, "; ")))
	b.WriteString("\">\n<div id=\"editor\">")
	b.WriteString(Render(doc))
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}
