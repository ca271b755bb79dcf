package httpserver

import (
	"net/http"
	"strings"
)

// liveReloadScriptTag is injected before </body> so dev-mode windows pick up
// broadcasts without the frontend having to include the script itself.
const liveReloadScriptTag = `<script async src="/livereload.js"></script></body>`

// injectLiveReloadScript is a middleware that injects the live reload client
// script into HTML responses.
func (s *Server) injectLiveReloadScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only inject into HTML pages (not assets, API endpoints, etc.)
		path := r.URL.Path
		isHTMLPage := path == "/" || path == "" || strings.HasSuffix(path, "/") ||
			strings.HasSuffix(path, ".html") || !strings.Contains(path, ".")

		if !isHTMLPage {
			next.ServeHTTP(w, r)
			return
		}

		injector := newLiveReloadInjector(w)
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// liveReloadInjector wraps an http.ResponseWriter to inject the live reload
// client script before the </body> tag. Uses buffering with a size limit to
// prevent stalls on unexpectedly large documents.
type liveReloadInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func newLiveReloadInjector(w http.ResponseWriter) *liveReloadInjector {
	return &liveReloadInjector{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		maxSize:        512 * 1024, // typical HTML page fits well below this
	}
}

func (l *liveReloadInjector) WriteHeader(code int) {
	l.statusCode = code
	// Don't write the header yet unless in passthrough mode
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *liveReloadInjector) Write(data []byte) (int, error) {
	// Check Content-Type on first write
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		contentType := l.ResponseWriter.Header().Get("Content-Type")
		isHTML := contentType == "" || strings.Contains(contentType, "text/html")

		if !isHTML {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}

		l.buffer = make([]byte, 0, 64*1024)
	}

	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}

	// Too large to buffer: flush what we have and stream the rest unmodified.
	if len(l.buffer)+len(data) > l.maxSize {
		l.passthrough = true
		l.ResponseWriter.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true

		if len(l.buffer) > 0 {
			if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
				return 0, err
			}
		}
		return l.ResponseWriter.Write(data)
	}

	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

// finalize must be called after the handler completes to inject the script.
func (l *liveReloadInjector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}

	modified := strings.Replace(string(l.buffer), "</body>", liveReloadScriptTag, 1)

	l.ResponseWriter.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	_, _ = l.ResponseWriter.Write([]byte(modified))
}
