package media

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	httpclient "candidate-evaluator/internal/common/http"
)

// Point is a normalized landmark coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceObservation is what the model server reports for one frame.
type FaceObservation struct {
	FaceDetected      bool    `json:"face_detected"`
	Landmarks         []Point `json:"landmarks,omitempty"`
	Emotion           string  `json:"emotion,omitempty"`
	EmotionConfidence float64 `json:"emotion_confidence,omitempty"`
}

type frameRequest struct {
	Image  string `json:"image"`
	Format string `json:"format"`
}

// VisionClient posts frames to the face-mesh/emotion model server.
type VisionClient struct {
	http *httpclient.Client
	url  string
}

func NewVisionClient(url string, timeout time.Duration) *VisionClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VisionClient{http: httpclient.NewClient(timeout), url: strings.TrimRight(url, "/")}
}

// AnalyzeFrame sends one PNG frame.
func (v *VisionClient) AnalyzeFrame(ctx context.Context, png []byte) (*FaceObservation, error) {
	var obs FaceObservation
	err := v.http.PostJSON(ctx, v.url+"/v1/analyze-frame", frameRequest{
		Image:  base64.StdEncoding.EncodeToString(png),
		Format: "png",
	}, &obs)
	if err != nil {
		return nil, err
	}
	obs.Emotion = strings.ToLower(strings.TrimSpace(obs.Emotion))
	return &obs, nil
}
