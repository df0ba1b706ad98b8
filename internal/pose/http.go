package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gait-backend/internal/errs"
)

// HTTPClient talks to the pose-estimation sidecar. The sidecar wraps the
// landmark model and the overlay renderer; this service only moves video
// files and landmark JSON across the wire.
type HTTPClient struct {
	Client  *http.Client
	BaseURL string
	TempDir string
}

func NewHTTPClient(baseURL, tempDir string) *HTTPClient {
	return &HTTPClient{
		Client:  http.DefaultClient,
		BaseURL: baseURL,
		TempDir: tempDir,
	}
}

type extractResponse struct {
	FrameRate float64 `json:"frame_rate"`
	Frames    []struct {
		Detected  bool `json:"detected"`
		Keypoints []struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"keypoints"`
	} `json:"frames"`
}

// Extract posts the video to /extract and decodes the per-frame landmarks.
func (c *HTTPClient) Extract(ctx context.Context, videoPath string) ([]Frame, float64, error) {
	resp, err := c.postVideo(ctx, "/extract", videoPath, nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var parsed extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, &errs.TransportError{Op: "pose extraction", Err: err}
	}

	frames := make([]Frame, len(parsed.Frames))
	for i, f := range parsed.Frames {
		frames[i].Detected = f.Detected
		frames[i].Keypoints = make([]Keypoint, len(f.Keypoints))
		for j, k := range f.Keypoints {
			frames[i].Keypoints[j] = Keypoint{X: k.X, Y: k.Y, Z: k.Z}
		}
	}
	return frames, parsed.FrameRate, nil
}

// Annotate posts the video and its landmarks to /annotate and writes the
// returned overlay video to a temp file.
func (c *HTTPClient) Annotate(ctx context.Context, videoPath string, frames []Frame) (string, error) {
	landmarks, err := json.Marshal(frames)
	if err != nil {
		return "", &errs.TransportError{Op: "video annotation", Err: err}
	}
	resp, err := c.postVideo(ctx, "/annotate", videoPath, map[string]string{
		"landmarks": string(landmarks),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	path := filepath.Join(c.TempDir, uuid.NewString()+".mp4")
	f, err := os.Create(path)
	if err != nil {
		return "", &errs.TransportError{Op: "video annotation", Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", &errs.TransportError{Op: "video annotation", Err: err}
	}
	return path, nil
}

func (c *HTTPClient) postVideo(ctx context.Context, endpoint, videoPath string, fields map[string]string) (*http.Response, error) {
	op := "pose service " + endpoint

	data, err := os.ReadFile(videoPath)
	if err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, &errs.TransportError{Op: op, Err: err}
		}
	}
	part, err := form.CreateFormFile("file", filepath.Base(videoPath))
	if err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}
	if err := form.Close(); err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, &body)
	if err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &errs.TransportError{Op: op, Status: resp.StatusCode}
	}
	return resp, nil
}
