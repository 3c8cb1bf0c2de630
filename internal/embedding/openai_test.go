package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openaiResponse(vec []float32) openaiEmbeddingResponse {
	var resp openaiEmbeddingResponse
	resp.Data = []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	}{{Embedding: vec}}
	return resp
}

func TestOpenAIDefaults(t *testing.T) {
	p, err := newOpenAIProvider(ProviderConfig{Provider: "openai", APIKey: "sk-x"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Model() != "text-embedding-3-small" {
		t.Errorf("model = %q", p.Model())
	}
	if p.Dimensions() != 1536 {
		t.Errorf("dims = %d", p.Dimensions())
	}
}

func TestOpenAICompatibleSkipsKeyCheck(t *testing.T) {
	p, err := newOpenAIProvider(ProviderConfig{Provider: "openai-compatible", BaseURL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("openai-compatible must not require a key: %v", err)
	}
	if p.apiKey != "" {
		t.Errorf("unexpected key %q", p.apiKey)
	}
}

func TestOpenAIEmbed(t *testing.T) {
	var gotAuth string
	var gotReq openaiEmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(openaiResponse([]float32{0.1, 0.2, 0.3}))
	}))
	defer srv.Close()

	p, err := newOpenAIProvider(ProviderConfig{
		Provider:   "openai",
		APIKey:     "sk-test",
		BaseURL:    srv.URL,
		Model:      "text-embedding-3-small",
		Dimensions: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	vec, err := p.EmbedQuery("hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 dims, got %d", len(vec))
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Input != "hello" || gotReq.Model != "text-embedding-3-small" {
		t.Errorf("unexpected request %+v", gotReq)
	}
	if gotReq.Dimensions != 3 {
		t.Errorf("variable-dim model should request custom dims, got %d", gotReq.Dimensions)
	}
}

func TestOpenAIEmbedTruncatesLongInput(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiEmbeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotLen = len(req.Input)
		json.NewEncoder(w).Encode(openaiResponse([]float32{0.1}))
	}))
	defer srv.Close()

	p, err := newOpenAIProvider(ProviderConfig{Provider: "openai-compatible", BaseURL: srv.URL, Dimensions: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.EmbedDocument(strings.Repeat("a", 40000)); err != nil {
		t.Fatal(err)
	}
	if gotLen != 30000 {
		t.Errorf("input not truncated, len = %d", gotLen)
	}
}

func TestOpenAIEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	}))
	defer srv.Close()

	p, err := newOpenAIProvider(ProviderConfig{Provider: "openai-compatible", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.EmbedQuery("q"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected 401 error, got %v", err)
	}
}

func TestIsVariableDimModel(t *testing.T) {
	if !isVariableDimModel("text-embedding-3-small") || !isVariableDimModel("text-embedding-3-large") {
		t.Error("3-series models support variable dims")
	}
	if isVariableDimModel("text-embedding-ada-002") {
		t.Error("ada-002 has fixed dims")
	}
}
