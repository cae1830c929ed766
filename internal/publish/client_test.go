package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_UploadTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		if r.URL.Path != "/submissions/sub-1/pages/2/upload-target" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Target{URL: "https://storage/blob", Key: "key-2"})
	}))
	defer srv.Close()

	target, err := NewClient(srv.URL).UploadTarget(context.Background(), "sub-1", 2)
	if err != nil {
		t.Fatalf("UploadTarget failed: %v", err)
	}
	if target.URL != "https://storage/blob" || target.Key != "key-2" {
		t.Errorf("target: got %+v", target)
	}
}

func TestClient_UploadTargetRejectsIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Target{URL: "https://storage/blob"})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).UploadTarget(context.Background(), "sub-1", 0); err == nil {
		t.Error("response without key must fail")
	}
}

func TestClient_Put(t *testing.T) {
	var gotBody []byte
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: got %s", r.Method)
		}
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	if err := NewClient("unused").Put(context.Background(), srv.URL, []byte("png-bytes")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if string(gotBody) != "png-bytes" {
		t.Errorf("body: got %q", gotBody)
	}
	if gotType != "image/png" {
		t.Errorf("content type: got %q", gotType)
	}
}

func TestClient_PutStorageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if err := NewClient("unused").Put(context.Background(), srv.URL, []byte("x")); err == nil {
		t.Error("non-2xx storage response must fail")
	}
}

func TestClient_PublishConflictMapsTo409(t *testing.T) {
	var gotPayload map[string]any
	status := http.StatusConflict
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submissions/sub-1/publish" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Publish(context.Background(), "sub-1", 3, "key-3", 7)

	var conflict *PublishConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want PublishConflictError", err)
	}
	if conflict.PageIndex != 3 || conflict.Version != 7 {
		t.Errorf("conflict detail: got %+v", conflict)
	}
	if gotPayload["key"] != "key-3" || gotPayload["pageIndex"] != float64(3) || gotPayload["version"] != float64(7) {
		t.Errorf("payload: got %v", gotPayload)
	}

	status = http.StatusOK
	if err := client.Publish(context.Background(), "sub-1", 3, "key-3", 7); err != nil {
		t.Errorf("publish after accept: got %v", err)
	}
}
