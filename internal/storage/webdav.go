package storage

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"slidesmith/internal/config"
	"slidesmith/internal/services"
)

// HTTPDoer describes the HTTP client used by the WebDAV service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebDAV talks to a Nextcloud files endpoint over WebDAV with basic auth.
type WebDAV struct {
	baseURL  string
	username string
	password string
	client   HTTPDoer
}

// NewWebDAV constructs a client for the given Nextcloud server. The base
// URL is the server root; the files endpoint is derived from the username.
func NewWebDAV(serverURL, username, password string, client HTTPDoer) *WebDAV {
	return &WebDAV{
		baseURL:  strings.TrimRight(strings.TrimSpace(serverURL), "/"),
		username: strings.TrimSpace(username),
		password: password,
		client:   client,
	}
}

// NewNextcloudClient builds a WebDAV client from static configuration.
func NewNextcloudClient(cfg *config.Config) *WebDAV {
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	if cfg.Nextcloud.InsecureTLS {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return NewWebDAV(cfg.Nextcloud.URL, cfg.Nextcloud.Username, cfg.Nextcloud.Password, httpClient)
}

// davURL maps a share-relative path onto the files endpoint.
func (w *WebDAV) davURL(remotePath string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(remotePath))
	escaped := (&url.URL{Path: cleaned}).EscapedPath()
	return fmt.Sprintf("%s/remote.php/dav/files/%s%s", w.baseURL, url.PathEscape(w.username), escaped)
}

type multistatus struct {
	XMLName   xml.Name      `xml:"multistatus"`
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href  string `xml:"href"`
	Props struct {
		Length       string `xml:"prop>getcontentlength"`
		ResourceType struct {
			Collection *struct{} `xml:"collection"`
		} `xml:"prop>resourcetype"`
	} `xml:"propstat"`
}

const propfindBody = `<?xml version="1.0" encoding="UTF-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:resourcetype/>
    <d:getcontentlength/>
  </d:prop>
</d:propfind>`

func (w *WebDAV) List(ctx context.Context, dir string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", w.davURL(dir), strings.NewReader(propfindBody))
	if err != nil {
		return nil, fmt.Errorf("build propfind request: %w", err)
	}
	req.SetBasicAuth(w.username, w.password)
	req.Header.Set("Depth", "1")
	req.Header.Set("Content-Type", "application/xml")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "storage", "list", fmt.Sprintf("propfind %q", dir), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusMultiStatus:
	case http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "storage", "list", fmt.Sprintf("folder %q does not exist on the server", dir), nil)
	default:
		return nil, services.Wrap(services.ErrTransport, "storage", "list", fmt.Sprintf("propfind %q returned %s", dir, resp.Status), nil)
	}

	var status multistatus
	if err := xml.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, services.Wrap(services.ErrTransport, "storage", "list", "decode propfind response", err)
	}

	base := path.Clean("/" + strings.TrimSpace(dir))
	entries := make([]Entry, 0, len(status.Responses))
	for _, response := range status.Responses {
		rel := w.relativePath(response.Href)
		if rel == "" || path.Clean(rel) == base {
			// The folder itself is always the first response.
			continue
		}
		size, _ := strconv.ParseInt(strings.TrimSpace(response.Props.Length), 10, 64)
		entries = append(entries, Entry{
			Name: path.Base(rel),
			Path: rel,
			Size: size,
			Dir:  response.Props.ResourceType.Collection != nil,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// relativePath strips the dav prefix from an href, returning the
// share-relative path.
func (w *WebDAV) relativePath(href string) string {
	unescaped, err := url.PathUnescape(strings.TrimSpace(href))
	if err != nil {
		unescaped = href
	}
	prefix := fmt.Sprintf("/remote.php/dav/files/%s", w.username)
	idx := strings.Index(unescaped, prefix)
	if idx < 0 {
		return ""
	}
	rel := strings.TrimRight(unescaped[idx+len(prefix):], "/")
	if rel == "" {
		return "/"
	}
	return rel
}

func (w *WebDAV) Open(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.davURL(remotePath), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.SetBasicAuth(w.username, w.password)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "storage", "fetch", fmt.Sprintf("download %q", remotePath), err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrNotFound, "storage", "fetch", fmt.Sprintf("file %q does not exist on the server", remotePath), nil)
	default:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransport, "storage", "fetch", fmt.Sprintf("download %q returned %s", remotePath, resp.Status), nil)
	}
}

func (w *WebDAV) Fetch(ctx context.Context, remotePath, localPath string) error {
	body, err := w.Open(ctx, remotePath)
	if err != nil {
		return err
	}
	defer body.Close()
	return writeFile(localPath, body)
}

func (w *WebDAV) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := w.ensureFolder(ctx, path.Dir(remotePath)); err != nil {
		return err
	}

	source, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open source %q: %w", localPath, err)
	}
	defer source.Close()
	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source %q: %w", localPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, w.davURL(remotePath), source)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.SetBasicAuth(w.username, w.password)
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := w.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "storage", "upload", fmt.Sprintf("upload %q", remotePath), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransport, "storage", "upload", fmt.Sprintf("upload %q returned %s", remotePath, resp.Status), nil)
	}
	return nil
}

// ensureFolder creates the destination folder when it is missing. Nextcloud
// answers MKCOL on an existing folder with 405, which is fine.
func (w *WebDAV) ensureFolder(ctx context.Context, dir string) error {
	cleaned := path.Clean("/" + strings.TrimSpace(dir))
	if cleaned == "/" || cleaned == "." {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, "MKCOL", w.davURL(cleaned), nil)
	if err != nil {
		return fmt.Errorf("build mkcol request: %w", err)
	}
	req.SetBasicAuth(w.username, w.password)

	resp, err := w.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "storage", "upload", fmt.Sprintf("create folder %q", cleaned), err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusMethodNotAllowed:
		return nil
	case http.StatusConflict:
		// Parent missing: create it and retry once.
		if err := w.ensureFolder(ctx, path.Dir(cleaned)); err != nil {
			return err
		}
		retry, err := http.NewRequestWithContext(ctx, "MKCOL", w.davURL(cleaned), nil)
		if err != nil {
			return fmt.Errorf("build mkcol request: %w", err)
		}
		retry.SetBasicAuth(w.username, w.password)
		retryResp, err := w.client.Do(retry)
		if err != nil {
			return services.Wrap(services.ErrTransport, "storage", "upload", fmt.Sprintf("create folder %q", cleaned), err)
		}
		retryResp.Body.Close()
		if retryResp.StatusCode != http.StatusCreated && retryResp.StatusCode != http.StatusMethodNotAllowed {
			return services.Wrap(services.ErrTransport, "storage", "upload", fmt.Sprintf("create folder %q returned %s", cleaned, retryResp.Status), nil)
		}
		return nil
	default:
		return services.Wrap(services.ErrTransport, "storage", "upload", fmt.Sprintf("create folder %q returned %s", cleaned, resp.Status), nil)
	}
}
