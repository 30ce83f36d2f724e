package server

import (
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
)

// precompressed lists the encodings the file server will negotiate, most
// preferred first, with the sibling-file extension carrying each variant.
var precompressed = []struct {
	token string
	ext   string
}{
	{"br", ".br"},
	{"zstd", ".zst"},
	{"gzip", ".gz"},
	{"deflate", ".zz"},
}

// staticHandler serves files from the site root, appending index.html to
// directory requests and falling back to the configured 404 page.
type staticHandler struct {
	root         fs.FS
	notFoundPage string
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := fsName(r.URL.Path)
	info, err := fs.Stat(h.root, name)
	if err == nil && info.IsDir() {
		name = path.Join(name, "index.html")
		info, err = fs.Stat(h.root, name)
	}
	if err != nil || info.IsDir() {
		serveNotFound(w, h.root, h.notFoundPage)
		return
	}

	h.serveFile(w, r, name, info.ModTime())
}

// fsName maps a request path onto an fs.FS name. Traversal is neutralized by
// path.Clean; anything still escaping the root is an invalid fs name and
// fails to open.
func fsName(reqPath string) string {
	cleaned := path.Clean("/" + reqPath)
	if strings.HasSuffix(reqPath, "/") && cleaned != "/" {
		cleaned += "/index.html"
	}
	name := strings.TrimPrefix(cleaned, "/")
	if name == "" {
		return "index.html"
	}
	return name
}

// serveFile sends the file, preferring a precompressed sibling the client
// accepts. The Content-Type always reflects the logical file, not the
// compressed bytes.
func (h *staticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string, modTime time.Time) {
	accept := r.Header.Get("Accept-Encoding")
	for _, enc := range precompressed {
		if !acceptsEncoding(accept, enc.token) {
			continue
		}
		f, err := h.root.Open(name + enc.ext)
		if err != nil {
			continue
		}
		defer func() { _ = f.Close() }()

		w.Header().Set("Content-Encoding", enc.token)
		w.Header().Add("Vary", "Accept-Encoding")
		setContentType(w, name)
		sendContent(w, r, name+enc.ext, modTime, f)
		return
	}

	f, err := h.root.Open(name)
	if err != nil {
		serveNotFound(w, h.root, h.notFoundPage)
		return
	}
	defer func() { _ = f.Close() }()
	setContentType(w, name)
	sendContent(w, r, name, modTime, f)
}

// setContentType resolves the type from the logical file extension so that
// http.ServeContent never sniffs compressed bytes.
func setContentType(w http.ResponseWriter, name string) {
	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
}

// sendContent uses http.ServeContent for range and conditional support when
// the file supports seeking, copying directly otherwise.
func sendContent(w http.ResponseWriter, r *http.Request, name string, modTime time.Time, f fs.File) {
	if rs, ok := f.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, modTime, rs)
		return
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.Copy(w, f)
	}
}

// serveNotFound renders the site's 404 page with status 404, or a bare text
// response when the site has none.
func serveNotFound(w http.ResponseWriter, fsys fs.FS, page string) {
	if page != "" {
		if f, err := fsys.Open(page); err == nil {
			defer func() { _ = f.Close() }()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.Copy(w, f)
			return
		}
	}
	http.Error(w, "404 page not found", http.StatusNotFound)
}

// acceptsEncoding reports whether the Accept-Encoding header allows token.
// Quality values other than q=0 are treated as acceptance.
func acceptsEncoding(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		name, params, _ := strings.Cut(part, ";")
		if strings.TrimSpace(name) != token {
			continue
		}
		q := strings.TrimSpace(params)
		if q == "q=0" || q == "q=0.0" || q == "q=0.00" || q == "q=0.000" {
			return false
		}
		return true
	}
	return false
}
