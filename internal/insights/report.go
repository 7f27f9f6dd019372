package insights

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// MediaPDF is the only document type AnalyzeReport sends as a document block.
const MediaPDF = "application/pdf"

// Vital is one value read off a lab report.
type Vital struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
	Status string `json:"status"`
}

// MedicalReport is the structured reading of a scanned report or prescription.
type MedicalReport struct {
	Vitals    []Vital  `json:"vitals"`
	Summary   string   `json:"summary"`
	Concerns  []string `json:"concerns"`
	Positives []string `json:"positives"`
	NextSteps []string `json:"nextSteps"`
}

const reportPrompt = `Analyze this medical report or prescription.
1. Extract key health vitals and lab results (for example Hemoglobin, Vitamin D, Cholesterol).
2. Flag values outside the normal range as concerns.
3. Summarize the overall health status shown by the document.
4. Suggest next steps or topics to discuss with a doctor.
5. Highlight what is going well.

Reply with JSON only, in this shape:
{
  "vitals": [{"name": "...", "value": "...", "unit": "...", "status": "normal|high|low"}],
  "summary": "...",
  "concerns": ["..."],
  "positives": ["..."],
  "nextSteps": ["..."]
}`

// AnalyzeReport sends the image or PDF at path to the model and decodes its
// JSON reading. mediaType must be image/* or application/pdf.
func (c *Commentator) AnalyzeReport(ctx context.Context, path, mediaType string) (*MedicalReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	var attachment anthropic.ContentBlockParamUnion
	switch {
	case mediaType == MediaPDF:
		attachment = anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded})
	case strings.HasPrefix(mediaType, "image/"):
		attachment = anthropic.NewImageBlockBase64(mediaType, encoded)
	default:
		return nil, fmt.Errorf("unsupported report type %q", mediaType)
	}

	text, err := c.complete(ctx, attachment, anthropic.NewTextBlock(reportPrompt))
	if err != nil {
		return nil, err
	}
	return ParseMedicalReport(text)
}

// ParseMedicalReport decodes the outermost JSON object in text, ignoring any
// prose or code fences around it.
func ParseMedicalReport(text string) (*MedicalReport, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, errors.New("report analysis contained no JSON object")
	}
	var report MedicalReport
	if err := json.Unmarshal([]byte(text[start:end+1]), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report analysis: %w", err)
	}
	return &report, nil
}
