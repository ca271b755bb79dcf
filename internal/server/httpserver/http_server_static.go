package httpserver

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
)

// resolveAssetRoot resolves the configured asset directory. Preference order:
// 1. an absolute path is used as-is
// 2. relative to the executable's directory (packaged layout)
// 3. relative to the working directory (development).
func resolveAssetRoot(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return checkEntryDocument(dir), nil
		}
		return "", assetRootError(dir)
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), dir)
		if st, statErr := os.Stat(candidate); statErr == nil && st.IsDir() {
			slog.Debug("Serving assets relative to executable",
				slog.String("path", candidate))
			return checkEntryDocument(candidate), nil
		}
	}

	if abs, err := filepath.Abs(dir); err == nil {
		if st, statErr := os.Stat(abs); statErr == nil && st.IsDir() {
			slog.Debug("Serving assets relative to working directory",
				slog.String("path", abs))
			return checkEntryDocument(abs), nil
		}
	}

	return "", assetRootError(dir)
}

// checkEntryDocument warns when index.html is missing. Static files still get
// served; only the client-side route fallback degrades to plain 404s.
func checkEntryDocument(root string) string {
	if _, err := os.Stat(filepath.Join(root, "index.html")); err != nil {
		slog.Warn("Asset directory has no index.html, client-side routes will 404",
			slog.String("asset_root", root))
	}
	return root
}

func assetRootError(dir string) error {
	return derrors.FileSystemError("asset directory not found").
		WithContext("asset_dir", dir).
		Build()
}

// staticHandler serves the asset root with an entry-document fallback: a 404
// on a GET for an extension-less path is replaced by index.html so
// client-side-routed paths resolve after a reload or deep link.
func (s *Server) staticHandler(root string) http.Handler {
	fileServer := http.FileServer(http.Dir(root))
	indexPath := filepath.Join(root, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Capture the response to detect 404s before anything reaches the client.
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		fileServer.ServeHTTP(rec, r)

		if rec.statusCode == http.StatusNotFound && r.Method == http.MethodGet && !hasFileExtension(r.URL.Path) {
			if _, err := os.Stat(indexPath); err == nil {
				w.Header().Set("Cache-Control", "no-cache, must-revalidate")
				http.ServeFile(w, r, indexPath)
				return
			}
		}

		// Not a fallback case: flush the captured response as-is.
		rec.Flush()
	})
}

// hasFileExtension reports whether the final path element looks like a file
// reference. Client-side routes are extension-less; missing real assets keep
// their 404.
func hasFileExtension(urlPath string) bool {
	return path.Ext(path.Base(urlPath)) != ""
}

// addCacheControlHeaders wraps a handler to add appropriate Cache-Control headers
// for static assets. Different asset types receive different cache durations:
// - Fingerprinted assets (CSS, JS, fonts): 1 year (31536000s)
// - HTML pages and client-side routes: no cache (content must stay current)
// - Other assets: shorter caches by type.
func (s *Server) addCacheControlHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCacheControlForPath(w, r.URL.Path)

		next.ServeHTTP(w, r)
	})
}

// setCacheControlForPath sets appropriate Cache-Control header based on file type.
func setCacheControlForPath(w http.ResponseWriter, path string) {
	cacheControl := determineCacheControl(path)
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
}

// determineCacheControl returns the appropriate Cache-Control value for a path.
func determineCacheControl(path string) string {
	// CSS, JavaScript, and source maps - cache for 1 year (bundlers emit
	// content-hashed filenames)
	if strings.HasSuffix(path, ".css") || strings.HasSuffix(path, ".js") ||
		strings.HasSuffix(path, ".map") {
		return "public, max-age=31536000, immutable"
	}

	// Web fonts - cache for 1 year
	if strings.HasSuffix(path, ".woff") || strings.HasSuffix(path, ".woff2") ||
		strings.HasSuffix(path, ".ttf") || strings.HasSuffix(path, ".eot") ||
		strings.HasSuffix(path, ".otf") {
		return "public, max-age=31536000, immutable"
	}

	// Images - cache for 1 week
	if strings.HasSuffix(path, ".png") || strings.HasSuffix(path, ".jpg") ||
		strings.HasSuffix(path, ".jpeg") || strings.HasSuffix(path, ".gif") ||
		strings.HasSuffix(path, ".svg") || strings.HasSuffix(path, ".webp") ||
		strings.HasSuffix(path, ".ico") {
		return "public, max-age=604800"
	}

	// Downloadable files - cache for 1 day
	if strings.HasSuffix(path, ".pdf") || strings.HasSuffix(path, ".zip") {
		return "public, max-age=86400"
	}

	// JSON data files - cache for 5 minutes
	if strings.HasSuffix(path, ".json") {
		return "public, max-age=300"
	}

	// HTML pages and client-side routes - no cache so updates are visible
	if strings.HasSuffix(path, ".html") || path == "/" || !strings.Contains(path, ".") {
		return "no-cache, must-revalidate"
	}

	// For all other files, don't set Cache-Control (let browser use default behavior)
	return ""
}

// responseRecorder captures status, headers, and body from the underlying
// handler. Headers are buffered too: the file server's 404 path sets
// Content-Type and X-Content-Type-Options, and those must never leak to the
// client when the response is replaced by the entry document.
type responseRecorder struct {
	http.ResponseWriter
	header     http.Header
	statusCode int
	written    bool
	body       []byte
}

func (r *responseRecorder) Header() http.Header {
	if r.header == nil {
		r.header = make(http.Header)
	}
	return r.header
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
	}
	// Don't write to the underlying writer yet - we might serve the entry document instead
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body = append(r.body, b...)
	return len(b), nil
}

func (r *responseRecorder) Flush() {
	dst := r.ResponseWriter.Header()
	for k, vv := range r.header {
		dst[k] = vv
	}
	if r.written {
		r.ResponseWriter.WriteHeader(r.statusCode)
	}
	if len(r.body) > 0 {
		_, _ = r.ResponseWriter.Write(r.body)
	}
}
