package server

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	defaultPath = "/index.html"

	notFoundBody = "<html><body><h1>404 - File Not Found</h1></body></html>"
)

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".ico":  "image/vnd.microsoft.icon",
}

// contentType picks the Content-Type for a file from its extension
func contentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func isTextContentType(ct string) bool {
	return strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/javascript") ||
		strings.HasPrefix(ct, "application/json")
}

// staticName maps a request path to a name inside the static root. Paths
// that would leave the root are rejected.
func staticName(urlPath string) (string, bool) {
	if urlPath == "" || urlPath == "/" {
		urlPath = defaultPath
	}
	name := strings.TrimPrefix(urlPath, "/")
	if !fs.ValidPath(name) || name == "." {
		return "", false
	}
	return name, true
}

// serveStatic serves files from the static root
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	name, ok := staticName(r.URL.Path)
	if !ok {
		s.notFound(w, r)
		return
	}

	info, err := fs.Stat(s.static, name)
	if err != nil || info.IsDir() {
		s.notFound(w, r)
		return
	}

	data, err := fs.ReadFile(s.static, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.notFound(w, r)
			return
		}
		log.Error().Err(err).Str("file", name).Msg("Failed to read static file")
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	ct := contentType(name)
	w.Header().Set("Content-Type", ct)
	if !isTextContentType(ct) {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// notFound writes the 404 page
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(notFoundBody))
	}
}
