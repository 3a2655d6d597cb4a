package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"potability/water"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// page 单页表单，参考范围由 markdown 渲染
type page struct {
	tmpl      *template.Template
	reference template.HTML
}

type pageData struct {
	Reference template.HTML
	Fields    []fieldResponse
}

func newPage() (*page, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(ReferenceMarkdown()), &buf); err != nil {
		return nil, fmt.Errorf("render reference ranges: %w", err)
	}
	// goldmark escapes raw HTML by default, so its output is safe to embed.
	return &page{tmpl: tmpl, reference: template.HTML(buf.String())}, nil
}

// ReferenceMarkdown 安全参考范围的 markdown 列表
func ReferenceMarkdown() string {
	var b strings.Builder
	for _, spec := range water.Specs() {
		fmt.Fprintf(&b, "- **%s**: %s\n", spec.Title, spec.SafeRange())
	}
	return b.String()
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	data := pageData{Reference: h.page.reference, Fields: fieldList()}
	if err := h.page.tmpl.Execute(&buf, data); err != nil {
		writeError(w, http.StatusInternalServerError, "render page failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
