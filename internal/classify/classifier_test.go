package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClassifySendsExamples(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"classifications":[{"prediction":"CREATE_TASK","confidence":0.97}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 5*time.Second)
	label, confidence, err := client.Classify(context.Background(), "Add a task", intentExamples)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if label != "CREATE_TASK" {
		t.Errorf("Expected CREATE_TASK, got %s", label)
	}
	if confidence != 0.97 {
		t.Errorf("Expected confidence 0.97, got %v", confidence)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotBody["model"] != "large" {
		t.Errorf("Expected model large, got %v", gotBody["model"])
	}
	examples, ok := gotBody["examples"].([]any)
	if !ok || len(examples) != 24 {
		t.Errorf("Expected 24 examples in request, got %d", len(examples))
	}
}

func TestClassifyIntentUnconfigured(t *testing.T) {
	classifier := NewEnhancedClassifier(NewClient("http://localhost:1", "", time.Second))
	if label := classifier.ClassifyIntent(context.Background(), "Add a task"); label != "UNKNOWN" {
		t.Errorf("Expected UNKNOWN without api key, got %s", label)
	}
}

func TestClassifyIntentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	classifier := NewEnhancedClassifier(NewClient(srv.URL, "test-key", time.Second))
	if label := classifier.ClassifyIntent(context.Background(), "Add a task"); label != "UNKNOWN" {
		t.Errorf("Expected UNKNOWN on server error, got %s", label)
	}
}

func TestGenerateNaturalResponseFallsBack(t *testing.T) {
	classifier := NewEnhancedClassifier(NewClient("http://localhost:1", "", time.Second))
	reply := classifier.GenerateNaturalResponse(context.Background(), "hi", "Hello there")
	if reply != "Hello there" {
		t.Errorf("Expected base message back, got %q", reply)
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "command" {
			t.Errorf("Expected model command, got %v", body["model"])
		}
		w.Write([]byte(`{"generations":[{"text":"Sure thing!"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 5*time.Second)
	text, err := client.Generate(context.Background(), "say hi", 100)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "Sure thing!" {
		t.Errorf("Expected 'Sure thing!', got %q", text)
	}
}
