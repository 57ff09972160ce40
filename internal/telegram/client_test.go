package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("123:abc", nil)
	c.baseURL = srv.URL
	return c
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	if err := c.SendMessage(context.Background(), 42, "<b>halo</b>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotBody["chat_id"] != float64(42) || gotBody["text"] != "<b>halo</b>" || gotBody["parse_mode"] != "HTML" {
		t.Errorf("body: got %v", gotBody)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})

	err := c.SendMessage(context.Background(), 42, "halo")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"f1","file_size":1024,"file_path":"photos/file_1.jpg"}}`))
	})

	f, err := c.GetFile(context.Background(), "f1")
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if f.FilePath != "photos/file_1.jpg" || f.FileSize != 1024 {
		t.Fatalf("unexpected file: %+v", f)
	}
}

func TestDownloadFile(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	})

	data, err := c.DownloadFile(context.Background(), "photos/file_1.jpg")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if gotPath != "/file/bot123:abc/photos/file_1.jpg" {
		t.Errorf("path: got %q", gotPath)
	}
	if len(data) != 3 || data[0] != 0xFF {
		t.Errorf("unexpected content: %v", data)
	}
}

func TestSetWebhook(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	})

	if err := c.SetWebhook(context.Background(), "https://bot.example.com/webhook", "s3cret"); err != nil {
		t.Fatalf("set webhook: %v", err)
	}
	if gotBody["url"] != "https://bot.example.com/webhook" || gotBody["secret_token"] != "s3cret" {
		t.Errorf("body: got %v", gotBody)
	}
}
