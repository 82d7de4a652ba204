package generator

import (
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/emitter"
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// writeComment writes the declaration's documentation as an XML doc comment
func (r *run) writeComment(out *emitter.Emitter, n *ast.Node) {
	c := n.Comment
	if c == nil || len(c.Paragraphs) == 0 && len(c.Params) == 0 && c.Returns == "" {
		return
	}

	if len(c.Paragraphs) > 0 {
		out.WriteIndentedLine("/// <summary>")
		for i, p := range c.Paragraphs {
			if i == 0 {
				writeDocLines(out, p)
				continue
			}
			out.WriteIndentedLine("/// <para>")
			writeDocLines(out, p)
			out.WriteIndentedLine("/// </para>")
		}
		out.WriteIndentedLine("/// </summary>")
	}
	for _, p := range c.Params {
		out.WriteIndentedLine(`/// <param name="` + xmlEscaper.Replace(p.Name) + `">` + docText(p.Text) + "</param>")
	}
	if c.Returns != "" {
		out.WriteIndentedLine("/// <returns>" + docText(c.Returns) + "</returns>")
	}
}

func writeDocLines(out *emitter.Emitter, text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			out.WriteIndentedLine("///")
			continue
		}
		out.WriteIndentedLine("/// " + xmlEscaper.Replace(line))
	}
}

// docText folds multi-line text onto one line
func docText(text string) string {
	return xmlEscaper.Replace(strings.Join(strings.Fields(text), " "))
}
