package api

import (
	"bytes"
	"errors"
	"net/http"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

const reportPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Dataset build report</title></head>
<body>
`

// handleReport renders the last build report as HTML.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.reportPath == "" {
		jsonError(w, "no build report", http.StatusNotFound)
		return
	}
	src, err := os.ReadFile(s.reportPath)
	if errors.Is(err, os.ErrNotExist) {
		jsonError(w, "no build report", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("read report failed", "path", s.reportPath, "error", err)
		jsonError(w, "failed to read report", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	buf.WriteString(reportPage)
	if err := markdown.Convert(src, &buf); err != nil {
		s.log.Error("render report failed", "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	buf.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
