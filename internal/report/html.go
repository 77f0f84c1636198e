package report

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"goenrich/internal/enrichment"
)

// HTML renders the markdown report as a standalone HTML page
func HTML(result *enrichment.Result, opts Options) ([]byte, error) {
	md, err := Markdown(result, opts)
	if err != nil {
		return nil, err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: opts.title(),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer), nil
}
