// Package export writes chat history as a zip archive of markdown
// transcripts with embedded media split out into a media/ folder.
package export

import (
	"archive/zip"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"zenai/config"
	"zenai/storage"
)

// ErrNothingToExport is returned when there are no sessions to write
var ErrNothingToExport = errors.New("nothing to export")

// media file extension by message type
var extByType = map[string]string{
	"image": "png",
	"video": "mp4",
	"audio": "mp3",
}

// WriteArchive writes all sessions into a zip archive under destDir and
// returns the archive path. Each session becomes a markdown transcript;
// embedded data-URI media is extracted into a media/ folder and linked
// relatively, external references stay plain links.
func WriteArchive(sessions []storage.ChatSession, destDir string, now time.Time) (string, error) {
	if len(sessions) == 0 {
		return "", ErrNothingToExport
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	archivePath := filepath.Join(destDir, fmt.Sprintf("zen-export-%s.zip", now.Format("2006-01-02")))
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	for _, session := range sessions {
		if err := writeSession(zw, session, now); err != nil {
			zw.Close()
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Export] wrote %d sessions to %s", len(sessions), archivePath)
	}
	return archivePath, nil
}

func writeSession(zw *zip.Writer, session storage.ChatSession, now time.Time) error {
	var md strings.Builder

	md.WriteString("# " + session.Title + "\n\n")
	if session.Date != "" {
		md.WriteString("Date: " + session.Date + "\n\n")
	}

	for _, msg := range session.Messages {
		md.WriteString("### " + strings.ToUpper(msg.Role) + "\n\n")

		switch msg.Type {
		case "image", "video", "audio":
			ref, err := mediaRef(zw, session.ID, msg.Type, msg.Content, now)
			if err != nil {
				return err
			}
			if msg.Type == "image" {
				md.WriteString("![generated image](" + ref + ")\n\n")
			} else {
				md.WriteString("[generated " + msg.Type + "](" + ref + ")\n\n")
			}

		case "user-media":
			// Attached filenames first, then the prompt text
			for _, file := range msg.Files {
				md.WriteString("- Attached: " + file.Name + "\n")
			}
			if len(msg.Files) > 0 {
				md.WriteString("\n")
			}
			if msg.Content != "" {
				md.WriteString(msg.Content + "\n\n")
			}

		default:
			md.WriteString(msg.Content + "\n\n")
		}
	}

	name := fmt.Sprintf("%s_%s.md", storage.SanitizeTitle(session.Title), shortID(session.ID))
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add transcript %s: %w", name, err)
	}
	if _, err := w.Write([]byte(md.String())); err != nil {
		return fmt.Errorf("failed to write transcript %s: %w", name, err)
	}
	return nil
}

// mediaRef extracts data-URI content into media/ and returns the relative
// archive path. Non-data references pass through untouched.
func mediaRef(zw *zip.Writer, sessionID, msgType, content string, now time.Time) (string, error) {
	payload, ok := decodeDataURI(content)
	if !ok {
		return content, nil
	}

	ext := extByType[msgType]
	name := fmt.Sprintf("media/%s_%d_%s.%s", sessionID, now.UnixNano(), shortID(uuid.New().String()), ext)

	w, err := zw.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to add media file: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return name, nil
}

// decodeDataURI returns the decoded payload of a base64 data URI. Malformed
// or non-data input reports ok=false so the caller can fall back to a link.
func decodeDataURI(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, false
	}
	idx := strings.Index(s, ";base64,")
	if idx < 0 {
		return nil, false
	}
	payload, err := base64.StdEncoding.DecodeString(s[idx+len(";base64,"):])
	if err != nil {
		return nil, false
	}
	return payload, true
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 5 {
		return id[:5]
	}
	return id
}
