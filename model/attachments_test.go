package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveAttachmentsPreservesOrder(t *testing.T) {
	dir := t.TempDir()

	// Files of very different sizes so resolution finishes out of order
	var files []AttachedFile
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("file%d.txt", i)
		size := 1
		if i%2 == 0 {
			size = 256 * 1024
		}
		content := strings.Repeat(fmt.Sprintf("%d", i), size)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
		files = append(files, AttachedFile{Name: name, Type: "text/plain", Content: path})
	}

	resolved := ResolveAttachments(files)

	if len(resolved) != len(files) {
		t.Fatalf("expected %d results, got %d", len(files), len(resolved))
	}
	for i, f := range resolved {
		if f.Name != files[i].Name {
			t.Errorf("result %d is %s, want %s", i, f.Name, files[i].Name)
		}
		if !strings.HasPrefix(f.Content, "data:") {
			t.Errorf("result %d not resolved to a data URI", i)
		}
		mimeType, payload, err := ParseDataURI(f.Content)
		if err != nil {
			t.Fatalf("result %d: %v", i, err)
		}
		if mimeType != "text/plain" {
			t.Errorf("result %d MIME = %q", i, mimeType)
		}
		if len(payload) == 0 || payload[0] != byte('0'+i) {
			t.Errorf("result %d carries the wrong payload", i)
		}
	}
}

func TestResolveAttachmentsEmpty(t *testing.T) {
	if got := ResolveAttachments(nil); got != nil {
		t.Errorf("expected nil for empty input")
	}
}

func TestResolveToDataURIPassthrough(t *testing.T) {
	uri := "data:image/png;base64,AAAA"
	if got := ResolveToDataURI(uri, ""); got != uri {
		t.Errorf("data URI input should pass through unchanged")
	}
}

func TestResolveToDataURIMissingFile(t *testing.T) {
	ref := "/nonexistent/path/image.png"
	if got := ResolveToDataURI(ref, ""); got != ref {
		t.Errorf("unresolvable reference should fall back to the input, got %q", got)
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xFF, 0x42}
	uri := EncodeDataURI("application/octet-stream", payload)

	mimeType, decoded, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI failed: %v", err)
	}
	if mimeType != "application/octet-stream" {
		t.Errorf("MIME = %q", mimeType)
	}
	if string(decoded) != string(payload) {
		t.Errorf("payload mismatch")
	}
}

func TestParseDataURIRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "http://example.com/x.png", "data:no-comma"} {
		if _, _, err := ParseDataURI(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestNormalizeAudioMIME(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		want     string
	}{
		{"clip.mp3", "", "audio/mpeg"},
		{"clip.wav", "", "audio/wav"},
		{"clip.m4a", "application/octet-stream", "audio/mp4"},
		{"clip.flac", "", "audio/flac"},
		{"clip.xyz", "", "audio/mpeg"},
		{"clip.ogg", "audio/ogg", "audio/ogg"},
		{"clip.mp3", "audio/custom", "audio/custom"},
	}

	for _, tt := range tests {
		if got := NormalizeAudioMIME(tt.name, tt.declared); got != tt.want {
			t.Errorf("NormalizeAudioMIME(%q, %q) = %q, want %q", tt.name, tt.declared, got, tt.want)
		}
	}
}
