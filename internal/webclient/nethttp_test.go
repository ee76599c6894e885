package webclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func newMockedClient(t *testing.T, cfg Config) *NetHTTPClient {
	t.Helper()
	wc, err := NewNetHTTPClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	c := wc.(*NetHTTPClient)
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestNetHTTPGet(t *testing.T) {
	c := newMockedClient(t, Config{})
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/",
		httpmock.NewStringResponder(200, "<html>hola</html>"))

	resp, err := c.Get(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != "<html>hola</html>" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestNetHTTPUserAgent(t *testing.T) {
	c := newMockedClient(t, Config{UserAgent: "faro-test/1.0"})

	var gotUA string
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	if _, err := c.Get(context.Background(), "https://example.com/"); err != nil {
		t.Fatal(err)
	}
	if gotUA != "faro-test/1.0" {
		t.Errorf("User-Agent = %q, want the configured one", gotUA)
	}
}

func TestNetHTTPExplicitHeaderWins(t *testing.T) {
	c := newMockedClient(t, Config{UserAgent: "default/1.0"})

	var gotUA string
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	req := &Request{
		Method:  http.MethodGet,
		URL:     "https://example.com/",
		Headers: http.Header{"User-Agent": []string{"custom/2.0"}},
	}
	if _, err := c.Do(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if gotUA != "custom/2.0" {
		t.Errorf("User-Agent = %q, explicit header should win", gotUA)
	}
}

func TestNetHTTPNilRequest(t *testing.T) {
	c := newMockedClient(t, Config{})
	if _, err := c.Do(context.Background(), nil); err == nil {
		t.Error("nil request should error")
	}
}

func TestNetHTTPContextCancellation(t *testing.T) {
	c := newMockedClient(t, Config{})
	httpmock.RegisterResponder(http.MethodGet, "https://slow.example.com/",
		func(req *http.Request) (*http.Response, error) {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(5 * time.Second):
				return httpmock.NewStringResponse(200, "ok"), nil
			}
		})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Get(ctx, "https://slow.example.com/"); err == nil {
		t.Error("expected context deadline error")
	}
}

func TestFactory(t *testing.T) {
	wc, err := New(Config{Backend: BackendNetHTTP}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wc.Close()
	if _, ok := wc.(*NetHTTPClient); !ok {
		t.Errorf("got %T, want *NetHTTPClient", wc)
	}

	if _, err := New(Config{Backend: "telnet"}, nil); err == nil {
		t.Error("unknown backend should error")
	}

	// Empty backend falls back to nethttp.
	wc2, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New with empty backend: %v", err)
	}
	defer wc2.Close()
	if _, ok := wc2.(*NetHTTPClient); !ok {
		t.Errorf("default backend: got %T", wc2)
	}
}

func TestBackendsRegistered(t *testing.T) {
	names := Backends()
	want := map[string]bool{BackendNetHTTP: false, BackendChromedp: false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("backend %q not registered", n)
		}
	}
}
