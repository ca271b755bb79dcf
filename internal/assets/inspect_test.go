package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleIndex = `<!DOCTYPE html>
<html>
<head>
  <title> Flight Planner </title>
  <link rel="stylesheet" href="/static/css/main.503cdf2a.css">
  <link rel="icon" href="/favicon.ico">
  <link rel="stylesheet" href="https://fonts.example.com/remote.css">
  <script src="/static/js/main.8a7b3c.js"></script>
  <script src="https://cdn.example.com/analytics.js"></script>
</head>
<body>
  <div id="root"></div>
  <img src="logo.png" alt="logo">
  <img src="data:image/png;base64,AAAA" alt="inline">
</body>
</html>`

func TestInspectReader(t *testing.T) {
	entry, err := InspectReader(strings.NewReader(sampleIndex))
	if err != nil {
		t.Fatalf("InspectReader: %v", err)
	}

	if entry.Title != "Flight Planner" {
		t.Errorf("title=%q, want %q", entry.Title, "Flight Planner")
	}
	if entry.Scripts != 1 {
		t.Errorf("scripts=%d, want 1 (remote scripts excluded)", entry.Scripts)
	}
	if entry.Stylesheets != 1 {
		t.Errorf("stylesheets=%d, want 1 (remote and non-stylesheet links excluded)", entry.Stylesheets)
	}
	if entry.Images != 1 {
		t.Errorf("images=%d, want 1 (data URIs excluded)", entry.Images)
	}
}

func TestInspectReaderNoTitle(t *testing.T) {
	entry, err := InspectReader(strings.NewReader("<html><body><p>hi</p></body></html>"))
	if err != nil {
		t.Fatalf("InspectReader: %v", err)
	}
	if entry.Title != "" {
		t.Errorf("title=%q, want empty", entry.Title)
	}
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte(sampleIndex), 0o600); err != nil {
		t.Fatalf("write index.html: %v", err)
	}

	entry, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if entry.Title != "Flight Planner" {
		t.Errorf("title=%q, want %q", entry.Title, "Flight Planner")
	}
}

func TestInspectMissingFile(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "missing.html"))
	if err == nil {
		t.Fatal("expected error for missing entry document")
	}
}

func TestIsLocalRef(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"/static/js/main.js", true},
		{"logo.png", true},
		{"./app.css", true},
		{"https://cdn.example.com/x.js", false},
		{"//cdn.example.com/x.js", false},
		{"data:image/png;base64,AAAA", false},
	}

	for _, tt := range tests {
		if got := isLocalRef(tt.ref); got != tt.want {
			t.Errorf("isLocalRef(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}
