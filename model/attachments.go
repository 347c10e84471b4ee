package model

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zenai/config"
)

var attachmentHTTPClient = &http.Client{Timeout: 30 * time.Second}

// ResolveAttachments converts every attachment's transient content reference
// (local path or URL) into a durable data URI. Files resolve concurrently but
// the result preserves input order: output i corresponds to input i.
// Resolution failures fall back to the original reference rather than
// failing the send.
func ResolveAttachments(files []AttachedFile) []AttachedFile {
	if len(files) == 0 {
		return nil
	}

	resolved := make([]AttachedFile, len(files))
	done := make(chan int, len(files))

	for i := range files {
		go func(i int) {
			f := files[i]
			f.Content = ResolveToDataURI(f.Content, f.Type)
			if f.Type == "" {
				f.Type = mimeFromDataURI(f.Content)
			}
			resolved[i] = f
			done <- i
		}(i)
	}

	for range files {
		<-done
	}

	return resolved
}

// ResolveToDataURI turns a content reference (local path, URL or already a
// data URI) into a data URI. On failure the input is returned unchanged.
func ResolveToDataURI(ref, declaredMIME string) string {
	if strings.HasPrefix(ref, "data:") {
		return ref
	}

	var payload []byte
	var mimeType string

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		resp, err := attachmentHTTPClient.Get(ref)
		if err != nil {
			return ref
		}
		defer resp.Body.Close()
		payload, err = io.ReadAll(resp.Body)
		if err != nil {
			return ref
		}
		mimeType = resp.Header.Get("Content-Type")
	} else {
		data, err := os.ReadFile(config.ExpandPath(ref))
		if err != nil {
			return ref
		}
		payload = data
		mimeType = mime.TypeByExtension(filepath.Ext(ref))
	}

	if declaredMIME != "" {
		mimeType = declaredMIME
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(payload)
	}

	return EncodeDataURI(mimeType, payload)
}

// EncodeDataURI builds a base64 data URI
func EncodeDataURI(mimeType string, payload []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(payload))
}

// ParseDataURI splits a data URI into MIME type and decoded payload
func ParseDataURI(uri string) (mimeType string, payload []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("not a data URI")
	}

	rest := uri[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("malformed data URI")
	}

	meta := rest[:comma]
	mimeType = strings.TrimSuffix(meta, ";base64")
	if semi := strings.IndexByte(mimeType, ';'); semi >= 0 {
		mimeType = mimeType[:semi]
	}

	if strings.HasSuffix(meta, ";base64") {
		payload, err = base64.StdEncoding.DecodeString(rest[comma+1:])
	} else {
		payload = []byte(rest[comma+1:])
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}

	return mimeType, payload, nil
}

func mimeFromDataURI(uri string) string {
	mimeType, _, err := ParseDataURI(uri)
	if err != nil {
		return ""
	}
	return mimeType
}

// audioMIMEByExt maps common audio extensions to MIME types for files whose
// declared type is missing or generic. Transcription backends reject
// application/octet-stream uploads.
var audioMIMEByExt = map[string]string{
	"aac":  "audio/aac",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"m4a":  "audio/mp4",
	"ogg":  "audio/ogg",
	"webm": "audio/webm",
	"flac": "audio/flac",
}

// NormalizeAudioMIME repairs a missing or generic MIME type from the file
// extension, defaulting to audio/mpeg.
func NormalizeAudioMIME(name, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if mimeType, ok := audioMIMEByExt[ext]; ok {
		return mimeType
	}
	return "audio/mpeg"
}
