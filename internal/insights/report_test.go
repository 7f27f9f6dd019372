package insights

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportReply = "Here is the reading:\n```json\n" + `{
  "vitals": [{"name": "Vitamin D", "value": "18", "unit": "ng/mL", "status": "low"}],
  "summary": "Mostly normal panel.",
  "concerns": ["Vitamin D is low"],
  "positives": ["Cholesterol in range"],
  "nextSteps": ["Ask about supplementation"]
}` + "\n```"

// messagesServer answers every Messages call with text and records the first content blocks.
func messagesServer(t *testing.T, text string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var blocks []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content []map[string]any `json:"content"`
			} `json:"messages"`
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if len(body.Messages) > 0 {
			blocks = body.Messages[0].Content
		}
		reply, _ := json.Marshal(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       DefaultModel,
			"content":     []map[string]string{{"type": "text", "text": text}},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 8},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &blocks
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeReportSendsPDFDocument(t *testing.T) {
	srv, blocks := messagesServer(t, reportReply)
	c, err := NewCommentator(CommentatorConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	path := writeFile(t, "labs.pdf", "%PDF-1.4 fake")
	report, err := c.AnalyzeReport(context.Background(), path, MediaPDF)
	require.NoError(t, err)

	require.Len(t, *blocks, 2)
	doc := (*blocks)[0]
	assert.Equal(t, "document", doc["type"])
	source, ok := doc["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", source["media_type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake")), source["data"])
	assert.Equal(t, "text", (*blocks)[1]["type"])

	require.Len(t, report.Vitals, 1)
	assert.Equal(t, Vital{Name: "Vitamin D", Value: "18", Unit: "ng/mL", Status: "low"}, report.Vitals[0])
	assert.Equal(t, "Mostly normal panel.", report.Summary)
	assert.Equal(t, []string{"Ask about supplementation"}, report.NextSteps)
}

func TestAnalyzeReportSendsImage(t *testing.T) {
	srv, blocks := messagesServer(t, reportReply)
	c, err := NewCommentator(CommentatorConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	path := writeFile(t, "rx.png", "\x89PNG")
	_, err = c.AnalyzeReport(context.Background(), path, "image/png")
	require.NoError(t, err)

	require.NotEmpty(t, *blocks)
	img := (*blocks)[0]
	assert.Equal(t, "image", img["type"])
	source, ok := img["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "image/png", source["media_type"])
}

func TestAnalyzeReportRejects(t *testing.T) {
	srv, _ := messagesServer(t, "I could not read this document.")
	c, err := NewCommentator(CommentatorConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	path := writeFile(t, "notes.txt", "hello")
	_, err = c.AnalyzeReport(context.Background(), path, "text/plain")
	assert.Error(t, err)

	_, err = c.AnalyzeReport(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), MediaPDF)
	assert.Error(t, err)

	path = writeFile(t, "labs.pdf", "%PDF")
	_, err = c.AnalyzeReport(context.Background(), path, MediaPDF)
	assert.ErrorContains(t, err, "no JSON object")
}

func TestParseMedicalReport(t *testing.T) {
	report, err := ParseMedicalReport(`{"summary":"ok","concerns":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "ok", report.Summary)

	_, err = ParseMedicalReport(`{"summary": }`)
	assert.Error(t, err)
	_, err = ParseMedicalReport(`} {`)
	assert.Error(t, err)
}
