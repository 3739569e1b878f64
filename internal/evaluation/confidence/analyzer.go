// Package confidence scores on-camera presence from sampled video frames:
// how often a face is visible, how steady the gaze is and which emotions
// dominate.
package confidence

import (
	"context"
	"math"
	"os"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/media"
	"candidate-evaluator/internal/textproc"
)

const (
	DefaultSampleRate = 30

	weightPresence   = 0.25
	weightEyeContact = 0.35
	weightEmotion    = 0.40

	// scoreFloor applies once any face was seen.
	scoreFloor = 20.0
)

var (
	leftEye  = []int{33, 7, 163, 144, 145, 153, 154, 155, 133, 173, 157, 158, 159, 160, 161, 246}
	rightEye = []int{362, 382, 381, 380, 374, 373, 390, 249, 263, 466, 388, 387, 386, 385, 384, 398}

	leftIris  = 468
	rightIris = 473

	positiveEmotions = []string{"happy", "neutral", "surprise"}
	negativeEmotions = []string{"angry", "sad", "fear", "disgust"}
)

// FrameSource samples frames from a video; *media.FrameSampler satisfies it.
type FrameSource interface {
	Sample(ctx context.Context, videoPath string, every int) (*media.Frames, error)
}

// FaceAnalyzer inspects one frame; *media.VisionClient satisfies it.
type FaceAnalyzer interface {
	AnalyzeFrame(ctx context.Context, png []byte) (*media.FaceObservation, error)
}

type Analyzer struct {
	frames     FrameSource
	faces      FaceAnalyzer
	sampleRate int
	logger     logger.Logger
}

// NewAnalyzer returns an Analyzer. faces may be nil when no model server is
// configured, in which case every analysis fails the pillar.
func NewAnalyzer(frames FrameSource, faces FaceAnalyzer, sampleRate int, log logger.Logger) *Analyzer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Analyzer{
		frames:     frames,
		faces:      faces,
		sampleRate: sampleRate,
		logger:     log.WithFields(map[string]interface{}{"component": "confidence"}),
	}
}

// Analyze scores the video at videoPath. duration is the recording length in
// seconds when known.
func (a *Analyzer) Analyze(ctx context.Context, videoPath string, duration float64) evaluation.PillarResult {
	if a.faces == nil || a.frames == nil {
		return evaluation.Failed(evaluation.PillarConfidence, "face analysis model not configured")
	}
	if _, err := os.Stat(videoPath); err != nil {
		return evaluation.Failed(evaluation.PillarConfidence, "video file not found: %s", videoPath)
	}

	frames, err := a.frames.Sample(ctx, videoPath, a.sampleRate)
	if err != nil {
		return evaluation.Failed(evaluation.PillarConfidence, "failed to open video file: %v", err)
	}
	defer frames.Cleanup()

	if len(frames.Paths) == 0 {
		return evaluation.Failed(evaluation.PillarConfidence, "could not analyze any frames")
	}

	observations := make([]*media.FaceObservation, 0, len(frames.Paths))
	failed := 0
	for _, p := range frames.Paths {
		if err := ctx.Err(); err != nil {
			return evaluation.Failed(evaluation.PillarConfidence, "analysis cancelled: %v", err)
		}
		obs, err := a.analyzeFrame(ctx, p)
		if err != nil {
			failed++
			a.logger.Debug("frame analysis failed", map[string]interface{}{"frame": p, "error": err.Error()})
			obs = &media.FaceObservation{}
		}
		observations = append(observations, obs)
	}

	if failed == len(frames.Paths) {
		return evaluation.Failed(evaluation.PillarConfidence, "face analysis failed for all %d frames", failed)
	}

	score, details := Aggregate(observations)
	details["video_duration"] = textproc.Round(duration, 2)
	details["model_loaded"] = true
	details["frames_failed"] = failed

	a.logger.Info("confidence analyzed", map[string]interface{}{
		"frames": len(observations),
		"score":  score,
	})
	return evaluation.Succeeded(evaluation.PillarConfidence, score, details)
}

func (a *Analyzer) analyzeFrame(ctx context.Context, path string) (*media.FaceObservation, error) {
	png, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.faces.AnalyzeFrame(ctx, png)
}

// Aggregate combines per-frame observations into the confidence score:
// presence*0.25 + eye contact*0.35 + emotion*0.40, raised to 20 when any face
// was detected.
func Aggregate(observations []*media.FaceObservation) (float64, map[string]interface{}) {
	var (
		faces       int
		eyeContacts []float64
		emotions    = map[string]int{}
		labelled    int
	)

	for _, o := range observations {
		if o == nil || !o.FaceDetected {
			continue
		}
		faces++
		eyeContacts = append(eyeContacts, EyeContact(o.Landmarks))
		if o.Emotion != "" {
			emotions[o.Emotion]++
			labelled++
		}
	}

	presence := 0.0
	if len(observations) > 0 {
		presence = float64(faces) / float64(len(observations)) * 100
	}

	avgEye := 0.0
	if len(eyeContacts) > 0 {
		for _, e := range eyeContacts {
			avgEye += e
		}
		avgEye /= float64(len(eyeContacts))
	}

	breakdown := make(map[string]float64, len(emotions))
	for label, n := range emotions {
		breakdown[label] = float64(n) / float64(labelled) * 100
	}

	var positive, negative float64
	for _, e := range positiveEmotions {
		positive += breakdown[e]
	}
	for _, e := range negativeEmotions {
		negative += breakdown[e]
	}
	emotionScore := textproc.Clamp(positive-negative*0.5, 0, 100)

	score := presence*weightPresence + avgEye*weightEyeContact + emotionScore*weightEmotion
	if faces > 0 && score < scoreFloor {
		score = scoreFloor
	}

	rounded := make(map[string]float64, len(breakdown))
	for k, v := range breakdown {
		rounded[k] = textproc.Round(v, 2)
	}

	return score, map[string]interface{}{
		"frames_analyzed":   len(observations),
		"faces_detected":    faces,
		"face_presence_pct": textproc.Round(presence, 2),
		"avg_eye_contact":   textproc.Round(avgEye, 2),
		"emotion_score":     textproc.Round(emotionScore, 2),
		"emotion_breakdown": rounded,
	}
}

// EyeContact scores gaze steadiness from a face-mesh landmark set: 100 minus
// 1000 times the mean horizontal iris offset from each eye's center. No
// landmarks scores 0; a set too short for the eye contours scores 50.
func EyeContact(landmarks []media.Point) float64 {
	n := len(landmarks)
	if n == 0 {
		return 0
	}
	if n <= maxIndex(rightEye) || n <= maxIndex(leftEye) {
		return 50
	}

	leftCenter := meanX(landmarks, leftEye)
	rightCenter := meanX(landmarks, rightEye)

	leftX, rightX := leftCenter, rightCenter
	switch {
	case n > rightIris:
		leftX = landmarks[leftIris].X
		rightX = landmarks[rightIris].X
	case n > leftIris:
		// left iris present but the right one cut off
		return 50
	}

	dev := (math.Abs(leftX-leftCenter) + math.Abs(rightX-rightCenter)) / 2
	return textproc.Clamp(100-dev*1000, 0, 100)
}

func meanX(landmarks []media.Point, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += landmarks[i].X
	}
	return sum / float64(len(idx))
}

func maxIndex(idx []int) int {
	m := 0
	for _, i := range idx {
		if i > m {
			m = i
		}
	}
	return m
}
