package fetcher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const twoProducts = `<?xml version="1.0" encoding="UTF-8"?>
<products>
  <product><name>Shirt</name></product>
  <product><name>Hat</name></product>
</products>`

// feedServer serves body with status for every request.
func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// TestFetch_Success tests fetching and parsing a well-formed feed.
func TestFetch_Success(t *testing.T) {
	t.Parallel()

	server := feedServer(t, http.StatusOK, twoProducts)
	var out bytes.Buffer
	f := New(server.Client(), WithOutput(&out))

	doc, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Root() == nil || doc.Root().Tag != "products" {
		t.Fatalf("expected products root, got %+v", doc.Root())
	}
	if got := len(doc.Root().SelectElements("product")); got != 2 {
		t.Errorf("expected 2 products, got %d", got)
	}
	if !strings.Contains(out.String(), "fetched "+server.URL) {
		t.Errorf("expected status line, got %q", out.String())
	}
}

// TestFetch_Failures tests that every failure is reported with its kind.
func TestFetch_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantStatus int
	}{
		{name: "not found", status: http.StatusNotFound, body: "missing", wantKind: KindStatus, wantStatus: 404},
		{name: "server error", status: http.StatusInternalServerError, body: "", wantKind: KindStatus, wantStatus: 500},
		{name: "malformed xml", status: http.StatusOK, body: "<products><product>", wantKind: KindParse, wantStatus: 200},
		{name: "empty body", status: http.StatusOK, body: "", wantKind: KindParse, wantStatus: 200},
		{name: "plain text", status: http.StatusOK, body: "not xml at all", wantKind: KindParse, wantStatus: 200},
		{name: "two root elements", status: http.StatusOK, body: "<a><product/></a><b><product/><product/></b>", wantKind: KindParse, wantStatus: 200},
		{name: "text after root", status: http.StatusOK, body: "<products><product/></products>trailing", wantKind: KindParse, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := feedServer(t, tt.status, tt.body)
			var out bytes.Buffer
			f := New(server.Client(), WithOutput(&out))

			doc, err := f.Fetch(context.Background(), server.URL)
			if doc != nil {
				t.Error("expected nil document on failure")
			}
			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *Error, got %T: %v", err, err)
			}
			if fe.Kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, fe.Kind)
			}
			if fe.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, fe.StatusCode)
			}
			if fe.URL != server.URL {
				t.Errorf("expected URL %q, got %q", server.URL, fe.URL)
			}
			if !strings.Contains(out.String(), "skipping source") {
				t.Errorf("expected failure status line, got %q", out.String())
			}
		})
	}
}

// TestFetch_StatusWrapsSentinel tests errors.Is on status failures.
func TestFetch_StatusWrapsSentinel(t *testing.T) {
	t.Parallel()

	server := feedServer(t, http.StatusForbidden, "")
	_, err := New(server.Client()).Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
	if KindOf(err) != KindStatus {
		t.Errorf("expected status kind, got %q", KindOf(err))
	}
}

// TestFetch_TransportFailure tests an unreachable source.
func TestFetch_TransportFailure(t *testing.T) {
	t.Parallel()

	server := feedServer(t, http.StatusOK, twoProducts)
	url := server.URL
	server.Close()

	_, err := New(nil).Fetch(context.Background(), url)
	if KindOf(err) != KindTransport {
		t.Errorf("expected transport failure, got %v", err)
	}
}

// TestFetch_NonHTTPURL tests that URLs the client cannot request fail as
// transport failures.
func TestFetch_NonHTTPURL(t *testing.T) {
	t.Parallel()

	for _, url := range []string{"example.com/b.xml", "ftp://example.com/b.xml", "/feed.xml"} {
		t.Run(url, func(t *testing.T) {
			t.Parallel()
			doc, err := New(nil).Fetch(context.Background(), url)
			if doc != nil {
				t.Error("expected nil document")
			}
			if KindOf(err) != KindTransport {
				t.Errorf("expected transport failure, got %v", err)
			}
		})
	}
}

// TestFetch_Timeout tests that a slow source fails as a transport failure.
func TestFetch_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	f := New(server.Client(), WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := f.Fetch(context.Background(), server.URL)
	if KindOf(err) != KindTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("fetch did not honor the timeout")
	}
}

// TestFetch_UserAgent tests that the configured User-Agent is sent.
func TestFetch_UserAgent(t *testing.T) {
	t.Parallel()

	gotUA := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(twoProducts))
	}))
	t.Cleanup(server.Close)

	t.Run("default is a browser", func(t *testing.T) {
		if _, err := New(server.Client()).Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ua := <-gotUA; !strings.HasPrefix(ua, "Mozilla/5.0") {
			t.Errorf("expected browser User-Agent, got %q", ua)
		}
	})

	t.Run("custom", func(t *testing.T) {
		f := New(server.Client(), WithUserAgent("feed-bot/1.0"))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ua := <-gotUA; ua != "feed-bot/1.0" {
			t.Errorf("expected custom User-Agent, got %q", ua)
		}
	})
}

// TestFetch_Charset tests decoding of a non-UTF-8 feed.
func TestFetch_Charset(t *testing.T) {
	t.Parallel()

	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-9\"?>\n" +
		"<products><product><name>G\xf6mlek</name></product></products>"
	server := feedServer(t, http.StatusOK, body)

	doc, err := New(server.Client()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name := doc.Root().FindElement("product/name")
	if name == nil || name.Text() != "Gömlek" {
		t.Errorf("expected decoded name Gömlek, got %+v", name)
	}
}

// TestFetch_MaxBodySize tests that a truncated body fails to parse.
func TestFetch_MaxBodySize(t *testing.T) {
	t.Parallel()

	server := feedServer(t, http.StatusOK, twoProducts)
	_, err := New(server.Client(), WithMaxBodySize(40)).Fetch(context.Background(), server.URL)
	if KindOf(err) != KindParse {
		t.Errorf("expected parse failure for truncated body, got %v", err)
	}
}

// TestFetchSource tests the per-source result.
func TestFetchSource(t *testing.T) {
	t.Parallel()

	ok := feedServer(t, http.StatusOK, twoProducts)
	missing := feedServer(t, http.StatusNotFound, "")
	f := New(http.DefaultClient)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		res := f.FetchSource(context.Background(), 3, ok.URL)
		if !res.OK() {
			t.Fatalf("expected OK result, got %+v", res)
		}
		if res.Index != 3 || res.URL != ok.URL || res.StatusCode != 200 {
			t.Errorf("unexpected result %+v", res)
		}
		if res.FailureKind != "" || res.ErrorMessage != "" {
			t.Errorf("expected no failure, got %+v", res)
		}
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		res := f.FetchSource(context.Background(), 0, missing.URL)
		if res.OK() {
			t.Fatal("expected failed result")
		}
		if res.FailureKind != string(KindStatus) || res.StatusCode != 404 {
			t.Errorf("unexpected result %+v", res)
		}
		if res.ErrorMessage == "" {
			t.Error("expected error message")
		}
	})
}

// TestCharsetReader tests encoding label resolution.
func TestCharsetReader(t *testing.T) {
	t.Parallel()

	if _, err := charsetReader("windows-1254", strings.NewReader("x")); err != nil {
		t.Errorf("expected windows-1254 to be supported, got %v", err)
	}
	if _, err := charsetReader("no-such-charset", strings.NewReader("x")); err == nil {
		t.Error("expected error for unknown charset")
	}
}
