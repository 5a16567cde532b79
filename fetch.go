package peripheral

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// contains http utils to deal with the published brokerage pages

// diskCache implements a simple disk cache for HTTP responses.
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	// the key includes the day, so the local cache expires daily.
	key := fmt.Sprintf("%s %s %s", time.Now().Format("2006-01-02"), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		// a failed cache write only costs a refetch tomorrow
		return resp, nil
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(os.TempDir(), key), content, 0o600)
}

// daily returns a client whose responses are cached on disk until the end
// of the day. The maintenance schedule page changes at most daily.
func daily() *http.Client {
	client := new(http.Client)
	client.Transport = &diskCache{http.DefaultTransport}
	return client
}

// FetchPage retrieves a published page and returns its body as UTF-8. The
// brokerage's informational pages are served in Shift_JIS; charset selects
// the decoding ("shift_jis" or "utf-8").
func FetchPage(url, charset string) (string, error) {
	resp, err := daily().Get(url)
	if err != nil {
		return "", fmt.Errorf("cannot http GET %q: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cannot http GET %q: %v", url, resp.Status)
	}

	var body io.Reader = resp.Body
	switch charset {
	case "", "utf-8":
	case "shift_jis":
		body = transform.NewReader(resp.Body, japanese.ShiftJIS.NewDecoder())
	default:
		return "", &ConfigError{Path: SectionCalendar + "." + OptPageCharset,
			Err: fmt.Errorf("unsupported charset %q", charset)}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("cannot read %q: %w", url, err)
	}
	return buf.String(), nil
}
