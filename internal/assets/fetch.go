package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMaxBytes caps a single fetched image.
const DefaultMaxBytes = 10 << 20

var extToMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// Fetcher resolves an image reference to its bytes and MIME type.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (data []byte, mime string, err error)
}

// HTTPFetcher downloads images over HTTP. Site-relative references
// ("/images/...") are resolved against BaseURL.
type HTTPFetcher struct {
	Client   *http.Client
	BaseURL  string
	MaxBytes int64
	// CheckHost vets every host before connecting, redirects included.
	// Nil means blockedHost.
	CheckHost func(host string) error
}

// NewHTTPFetcher returns a fetcher with a bounded client.
func NewHTTPFetcher(baseURL string, timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		MaxBytes: maxBytes,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}
	raw := ref
	if strings.HasPrefix(ref, "/") {
		if f.BaseURL == "" {
			return nil, "", fmt.Errorf("no base url for relative reference %s", ref)
		}
		raw = f.BaseURL + ref
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	check := f.CheckHost
	if check == nil {
		check = blockedHost
	}
	if err := check(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	client := *f.Client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return fmt.Errorf("too many redirects (max 5)")
		}
		return check(req.URL.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body failed: %w", err)
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, "", fmt.Errorf("image too large: exceeds %d bytes", f.MaxBytes)
	}

	mime, err := imageMIME(data, parsed.Path, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", err
	}
	return data, mime, nil
}

// imageMIME settles the MIME type from the content, falling back to the
// declared type and the extension only for SVG, which sniffing cannot detect.
func imageMIME(data []byte, path, declared string) (string, error) {
	ext := strings.ToLower(path[strings.LastIndex(path, ".")+1:])
	declared = strings.TrimSpace(strings.Split(declared, ";")[0])
	if ext == "svg" || declared == "image/svg+xml" {
		prefix := data
		if len(prefix) > 1024 {
			prefix = prefix[:1024]
		}
		if !bytes.Contains(prefix, []byte("<svg")) {
			return "", fmt.Errorf("content does not appear to be a valid SVG (missing <svg tag)")
		}
		return "image/svg+xml", nil
	}
	detected := strings.Split(http.DetectContentType(data), ";")[0]
	if !strings.HasPrefix(detected, "image/") {
		return "", fmt.Errorf("content is not an image (detected: %s)", detected)
	}
	return detected, nil
}

// decodeDataURI parses a data:[<mediatype>];base64,<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	meta, encoded := rest[:comma], rest[comma+1:]
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0], nil
}

// encodeDataURI renders data as a base64 data URI.
func encodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// blockedHost rejects loopback and cloud metadata addresses.
func blockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return nil //nolint:nilerr // the client reports DNS failures
		}
		ip = ips[0]
	}
	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}
