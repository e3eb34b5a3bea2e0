//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"
)

/********** ENV CONFIG **********/

type Cfg struct {
	AGBaseURL string
	RedisAddr string
}

func LoadCfg() Cfg {
	return Cfg{
		AGBaseURL: getenv("IT_AG_BASE", "http://127.0.0.1:8080"),
		RedisAddr: getenv("IT_REDIS", "127.0.0.1:6379"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func WaitTCP(t *testing.T, name, addr string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var last error
	for time.Now().Before(deadline) {
		d := net.Dialer{Timeout: 1500 * time.Millisecond}
		c, err := d.Dial("tcp", addr)
		if err == nil {
			_ = c.Close()
			t.Logf("[it] %s ready at %s", name, addr)
			return
		}
		last = err
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("[it] %s not reachable at %s: %v", name, addr, last)
}

/********** HTTP HELPERS **********/

func httpJSON(t *testing.T, client *http.Client, method, url string, body any, cookies []*http.Cookie, wantCode int) ([]byte, *http.Response) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantCode {
		t.Fatalf("http %s %s: got %d want %d body=%s", method, url, resp.StatusCode, wantCode, string(data))
	}
	return data, resp
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
