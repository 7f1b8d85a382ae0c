package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadPostsMultipartAndParsesURL(t *testing.T) {
	var gotField string
	var gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/upload" {
			t.Errorf("path = %s, want /upload", r.URL.Path)
		}
		file, header, err := r.FormFile(uploadFieldName)
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotField = header.Filename
		content, _ := io.ReadAll(file)
		gotContent = string(content)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"imgUrl":"https://cdn.example/img1.jpg"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	url, err := client.Upload(context.Background(), "tap.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example/img1.jpg" {
		t.Fatalf("url = %q, want %q", url, "https://cdn.example/img1.jpg")
	}
	if gotField != "tap.jpg" {
		t.Fatalf("filename = %q, want %q", gotField, "tap.jpg")
	}
	if gotContent != "jpeg-bytes" {
		t.Fatalf("content = %q, want %q", gotContent, "jpeg-bytes")
	}
}

func TestUploadRejectsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	if _, err := client.Upload(context.Background(), "tap.jpg", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestUploadRejectsEmptyImageURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"imgUrl":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	if _, err := client.Upload(context.Background(), "tap.jpg", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty image url")
	}
}

func TestDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/delete" {
			t.Errorf("path = %s, want /delete", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	if err := client.Delete(context.Background(), "https://cdn.example/gone.jpg"); err != nil {
		t.Fatalf("delete of unknown url should succeed, got %v", err)
	}
}

func TestDeleteSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	if err := client.Delete(context.Background(), "https://cdn.example/img1.jpg"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
