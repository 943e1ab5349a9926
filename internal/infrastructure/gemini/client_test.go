package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

const reportJSON = `{"diseaseName":"Leaf Blight","confidence":"High","symptoms":["brown lesions"],"treatment":"Apply fungicide","fertilizerRecommendation":"Nitrogen boost","preventionTips":["Avoid overwatering"]}`

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

// wireRequest is the subset of the generateContent body the tests inspect.
type wireRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType"`
		ResponseSchema   *struct {
			Type     string   `json:"type"`
			Required []string `json:"required"`
		} `json:"responseSchema"`
	} `json:"generationConfig"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Config{APIKey: "k-123", Model: "test-model", BaseURL: srv.URL}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestAnalyze_Success(t *testing.T) {
	var got wireRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/v1beta/models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k-123" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(candidateBody(reportJSON)))
	})

	report, err := client.Analyze(context.Background(), []byte("jpeg-bytes"), "image/png")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.DiseaseName != "Leaf Blight" || len(report.Symptoms) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 2 {
		t.Fatalf("expected one content with image and prompt parts, got %+v", got.Contents)
	}
	parts := got.Contents[0].Parts
	if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/png" {
		t.Fatalf("expected inline image part, got %+v", parts[0])
	}
	if parts[0].InlineData.Data != base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")) {
		t.Fatal("image not base64-encoded in request")
	}
	if got.GenerationConfig.ResponseMimeType != "application/json" || got.GenerationConfig.ResponseSchema == nil {
		t.Fatal("expected JSON response schema in request")
	}
	if parts[1].Text == "" {
		t.Fatal("expected prompt text part")
	}
	if len(got.GenerationConfig.ResponseSchema.Required) != 6 {
		t.Fatalf("expected 6 required fields, got %v", got.GenerationConfig.ResponseSchema.Required)
	}
}

func TestAnalyze_FencedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(candidateBody("```json\n" + reportJSON + "\n```")))
	})

	report, err := client.Analyze(context.Background(), []byte("x"), "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.Treatment != "Apply fungicide" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestAnalyze_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"upstream error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
		},
		"no candidates": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		},
		"blocked": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
		},
		"malformed report": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(candidateBody("this is not json")))
		},
		"missing disease": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(candidateBody(`{"confidence":"High"}`)))
		},
		"garbage envelope": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, h)
			_, err := client.Analyze(context.Background(), []byte("x"), "image/jpeg")
			if !errors.Is(err, domain.ErrAnalysisFailed) {
				t.Fatalf("expected ErrAnalysisFailed, got %v", err)
			}
		})
	}
}

func TestAnalyze_UpstreamMessageSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	})

	_, err := client.Analyze(context.Background(), []byte("x"), "image/jpeg")
	if !errors.Is(err, domain.ErrAnalysisFailed) || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected upstream message in error, got %v", err)
	}
}

func TestAnalyze_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "k", BaseURL: url}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Analyze(context.Background(), []byte("x"), "image/jpeg"); !errors.Is(err, domain.ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}
}
