package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gait-backend/internal/errs"
)

// Store moves video assets between external storage and local temp files.
// Download returns a local path the caller must remove when the run ends.
type Store interface {
	Download(ctx context.Context, url string) (string, error)
	Upload(ctx context.Context, localPath string) (string, error)
}

// HTTPStore talks to an upload endpoint in the Cloudinary unsigned-preset
// style: plain GET for downloads, multipart POST for uploads.
type HTTPStore struct {
	Client       *http.Client
	UploadURL    string
	UploadPreset string
	Folder       string
	TempDir      string
}

func NewHTTPStore(uploadURL, uploadPreset, tempDir string) *HTTPStore {
	return &HTTPStore{
		Client:       http.DefaultClient,
		UploadURL:    uploadURL,
		UploadPreset: uploadPreset,
		Folder:       "gait-sessions",
		TempDir:      tempDir,
	}
}

// Download fetches the video at url into a uniquely named temp file.
func (s *HTTPStore) Download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &errs.TransportError{Op: "video download", Status: resp.StatusCode}
	}

	path := filepath.Join(s.TempDir, uuid.NewString()+".mp4")
	f, err := os.Create(path)
	if err != nil {
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	return path, nil
}

// Upload posts the local file as multipart form data and returns the URL
// assigned by the storage service.
func (s *HTTPStore) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("upload_preset", s.UploadPreset); err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	if err := form.WriteField("folder", s.Folder); err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	part, err := form.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	if err := form.Close(); err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.UploadURL, &body)
	if err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &errs.TransportError{Op: "video upload", Status: resp.StatusCode}
	}

	var parsed struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	if parsed.SecureURL == "" {
		return "", &errs.TransportError{Op: "video upload", Err: fmt.Errorf("response carried no secure_url")}
	}
	return parsed.SecureURL, nil
}
