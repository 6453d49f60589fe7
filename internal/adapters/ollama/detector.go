package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

const faceSystemPrompt = "You are a face detector. Find human faces in the image.\n\nRules:\nReturn ONLY a JSON object of the form {\"faces\":[{\"score\":0.0,\"box\":{\"x\":0.0,\"y\":0.0,\"width\":0.0,\"height\":0.0}}]}.\nCoordinates are fractions of the image width and height, origin top-left.\nscore is your confidence from 0.0 to 1.0 that the box holds a face.\nReturn {\"faces\":[]} when there is no face."

const expressionSystemPrompt = "You are a facial expression classifier. The image is a cropped face.\n\nRules:\nReturn ONLY a JSON object with exactly these keys: neutral, happy, sad, angry, fearful, disgusted, surprised.\nEach value is a probability from 0.0 to 1.0 and the values sum to 1.0.\nNo conversational text."

type faceCandidate struct {
	Score float64    `json:"score"`
	Box   domain.Box `json:"box"`
}

type faceResponse struct {
	Faces []faceCandidate `json:"faces"`
}

// Detect runs single-face detection with the configured profile and then
// classifies the expression of the best face. A face with no usable scores
// is returned with empty Expressions.
func (c *Client) Detect(ctx context.Context, frame []byte) (domain.Detection, error) {
	if !c.loaded.Load() {
		return domain.Detection{}, ports.ErrModelsNotLoaded
	}

	img, err := decodeFrame(frame)
	if err != nil {
		return domain.Detection{}, fmt.Errorf("ollama: %w", err)
	}

	encoded, err := encodeBase64JPEG(fitWithin(img, c.options.InputSize))
	if err != nil {
		return domain.Detection{}, fmt.Errorf("ollama: %w", err)
	}

	content, err := c.chat(ctx, c.faceModel, faceSystemPrompt, "Detect faces.", encoded)
	if err != nil {
		return domain.Detection{}, err
	}

	face, ok, err := c.bestFace(content)
	if err != nil {
		return domain.Detection{}, err
	}
	if !ok {
		return domain.Detection{}, ports.ErrNoFaceDetected
	}

	crop, err := cropBox(img, face.Box)
	if err != nil {
		return domain.Detection{}, fmt.Errorf("ollama: %w: %v", ports.ErrNoFaceDetected, err)
	}
	encodedFace, err := encodeBase64JPEG(fitWithin(crop, expressionInputSize))
	if err != nil {
		return domain.Detection{}, fmt.Errorf("ollama: %w", err)
	}

	content, err = c.chat(ctx, c.expressionModel, expressionSystemPrompt, "Classify the facial expression.", encodedFace)
	if err != nil {
		return domain.Detection{}, err
	}

	scores, err := parseExpressionScores(content)
	if err != nil {
		return domain.Detection{}, err
	}

	return domain.Detection{
		Score:       face.Score,
		Box:         face.Box.Clamp(),
		Expressions: domain.NewExpressions(scores),
	}, nil
}

// bestFace keeps the highest-scoring candidate at or above the threshold.
func (c *Client) bestFace(content string) (faceCandidate, bool, error) {
	var parsed faceResponse
	if err := json.Unmarshal([]byte(extractJSON(content)), &parsed); err != nil {
		return faceCandidate{}, false, fmt.Errorf("ollama: decode faces: %w", err)
	}

	best := -1
	for i, f := range parsed.Faces {
		if f.Score < c.options.ScoreThreshold || f.Box.Clamp().Empty() {
			continue
		}
		if best == -1 || f.Score > parsed.Faces[best].Score {
			best = i
		}
	}
	if best == -1 {
		c.log.Debugf("no face above threshold %.2f among %d candidates", c.options.ScoreThreshold, len(parsed.Faces))
		return faceCandidate{}, false, nil
	}
	return parsed.Faces[best], true, nil
}

// parseExpressionScores accepts either a flat label->score object or one
// nested under "expressions".
func parseExpressionScores(content string) (map[string]float64, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("ollama: decode expressions: %w", err)
	}
	if nested, ok := raw["expressions"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			raw = inner
		}
	}

	scores := make(map[string]float64, len(raw))
	for label, value := range raw {
		var score float64
		if err := json.Unmarshal(value, &score); err != nil {
			continue
		}
		scores[label] = score
	}
	return scores, nil
}

// extractJSON trims any text around the outermost JSON object.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return content
	}
	return content[start : end+1]
}
