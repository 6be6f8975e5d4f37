package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const channelPage = `<!DOCTYPE html>
<html>
<head>
<title>fallback title</title>
<meta property="og:title" content="Demo Channel">
<meta property="og:description" content="A channel about demos.">
<meta property="og:image" content="https://i.ytimg.com/channel.jpg">
</head>
<body></body>
</html>`

func TestFetchPageInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(channelPage))
	}))
	defer srv.Close()

	info, err := NewWebInfoClient().FetchPageInfo(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchPageInfo() error = %v", err)
	}
	if info.Title != "Demo Channel" {
		t.Errorf("Title = %q, want og:title content", info.Title)
	}
	if info.Description != "A channel about demos." {
		t.Errorf("Description = %q", info.Description)
	}
	if info.ThumbnailURL != "https://i.ytimg.com/channel.jpg" {
		t.Errorf("ThumbnailURL = %q", info.ThumbnailURL)
	}
}

func TestFetchPageInfo_TitleTagFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title> plain title </title></head></html>`))
	}))
	defer srv.Close()

	info, err := NewWebInfoClient().FetchPageInfo(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchPageInfo() error = %v", err)
	}
	if info.Title != "plain title" {
		t.Errorf("Title = %q, want trimmed title tag text", info.Title)
	}
}

func TestFetchPageInfo_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewWebInfoClient().FetchPageInfo(context.Background(), srv.URL); err == nil {
		t.Error("FetchPageInfo() on 404 succeeded, want error")
	}
}
