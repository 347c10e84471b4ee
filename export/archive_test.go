package export

import (
	"archive/zip"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"zenai/storage"
)

func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer r.Close()

	files := make(map[string][]byte)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		files[f.Name] = data
	}
	return files
}

func TestWriteArchiveEmpty(t *testing.T) {
	_, err := WriteArchive(nil, t.TempDir(), time.Now())
	if !errors.Is(err, ErrNothingToExport) {
		t.Errorf("expected ErrNothingToExport, got %v", err)
	}
}

func TestWriteArchiveTranscript(t *testing.T) {
	sessions := []storage.ChatSession{
		{
			ID:    "abc-123",
			Title: "Quantum question",
			Date:  "2026-08-30T10:00:00Z",
			Messages: []storage.Message{
				{Role: "user", Content: "Explain entanglement", Type: "text"},
				{Role: "assistant", Content: "Two particles share a state.", Type: "text"},
			},
		},
	}

	path, err := WriteArchive(sessions, t.TempDir(), time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	if !strings.HasSuffix(path, "zen-export-2026-08-30.zip") {
		t.Errorf("unexpected archive name: %s", path)
	}

	files := readArchive(t, path)
	md, ok := files["Quantum_question_abc12.md"]
	if !ok {
		t.Fatalf("transcript missing, got files: %v", keys(files))
	}

	text := string(md)
	for _, want := range []string{"# Quantum question", "### USER", "Explain entanglement", "### ASSISTANT", "Two particles share a state."} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestWriteArchiveExtractsMedia(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	sessions := []storage.ChatSession{
		{
			ID:    "med-1",
			Title: "Pictures",
			Messages: []storage.Message{
				{Role: "user", Content: "a red square", Type: "text"},
				{Role: "assistant", Content: dataURI, Type: "image"},
			},
		},
	}

	path, err := WriteArchive(sessions, t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	files := readArchive(t, path)

	var mediaName string
	for name, data := range files {
		if strings.HasPrefix(name, "media/") {
			mediaName = name
			if string(data) != string(pngBytes) {
				t.Errorf("media payload mismatch")
			}
		}
	}
	if mediaName == "" {
		t.Fatalf("no media file in archive, got: %v", keys(files))
	}
	if !strings.HasSuffix(mediaName, ".png") {
		t.Errorf("expected .png media file, got %s", mediaName)
	}
	if !strings.HasPrefix(mediaName, "media/med-1_") {
		t.Errorf("media name should carry session id, got %s", mediaName)
	}

	md := string(files["Pictures_med1.md"])
	if !strings.Contains(md, "]("+mediaName+")") {
		t.Errorf("transcript does not link media file %s:\n%s", mediaName, md)
	}
	if strings.Contains(md, "data:image") {
		t.Errorf("transcript still embeds the raw data URI")
	}
}

func TestWriteArchiveExternalReference(t *testing.T) {
	sessions := []storage.ChatSession{
		{
			ID:    "ext-1",
			Title: "External",
			Messages: []storage.Message{
				{Role: "assistant", Content: "https://cdn.example.com/clip.mp4", Type: "video"},
			},
		},
	}

	path, err := WriteArchive(sessions, t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	files := readArchive(t, path)
	for name := range files {
		if strings.HasPrefix(name, "media/") {
			t.Errorf("external reference should not produce a media file: %s", name)
		}
	}

	md := string(files["External_ext1.md"])
	if !strings.Contains(md, "(https://cdn.example.com/clip.mp4)") {
		t.Errorf("external reference not linked:\n%s", md)
	}
}

func TestWriteArchiveUserMediaAttachments(t *testing.T) {
	sessions := []storage.ChatSession{
		{
			ID:    "att-1",
			Title: "Uploads",
			Messages: []storage.Message{
				{
					Role:    "user",
					Content: "what is in this picture?",
					Type:    "user-media",
					Files: []storage.AttachedFile{
						{Name: "photo.jpg", Type: "image/jpeg", Content: "data:image/jpeg;base64,AAAA"},
					},
				},
			},
		},
	}

	path, err := WriteArchive(sessions, t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	md := string(readArchive(t, path)["Uploads_att1.md"])
	textAt := strings.Index(md, "what is in this picture?")
	attachedAt := strings.Index(md, "- Attached: photo.jpg")
	if textAt < 0 {
		t.Fatalf("user text missing:\n%s", md)
	}
	if attachedAt < 0 {
		t.Fatalf("attachment listing missing:\n%s", md)
	}
	if attachedAt > textAt {
		t.Errorf("attached filenames must precede the user text:\n%s", md)
	}
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
