package catalog

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/reelhouse/reelhouse/internal/domain/catalog"
)

type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the upstream TMDB-compatible metadata API.
type Client struct {
	c   *http.Client
	cfg ClientConfig
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	return &Client{
		c:   &http.Client{Timeout: cfg.Timeout, Transport: transport},
		cfg: cfg,
	}
}

type pagedMovies struct {
	Results []catalog.Movie `json:"results"`
}

type pagedShows struct {
	Results []catalog.Show `json:"results"`
}

type genreList struct {
	Genres []catalog.Genre `json:"genres"`
}

func (cl *Client) PopularMovies(ctx context.Context, page int) ([]catalog.Movie, error) {
	var out pagedMovies
	if err := cl.get(ctx, "/movie/popular", url.Values{"page": {strconv.Itoa(page)}}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (cl *Client) PopularShows(ctx context.Context, page int) ([]catalog.Show, error) {
	var out pagedShows
	if err := cl.get(ctx, "/tv/popular", url.Values{"page": {strconv.Itoa(page)}}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (cl *Client) MovieByID(ctx context.Context, id int64) (*catalog.Movie, error) {
	var out catalog.Movie
	if err := cl.get(ctx, "/movie/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (cl *Client) ShowByID(ctx context.Context, id int64) (*catalog.Show, error) {
	var out catalog.Show
	if err := cl.get(ctx, "/tv/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (cl *Client) MovieGenres(ctx context.Context) ([]catalog.Genre, error) {
	var out genreList
	if err := cl.get(ctx, "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

func (cl *Client) ShowGenres(ctx context.Context) ([]catalog.Genre, error) {
	var out genreList
	if err := cl.get(ctx, "/genre/tv/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

func (cl *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", cl.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if cl.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cl.cfg.UserAgent)
	}

	resp, err := cl.c.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

var _ catalog.Source = (*Client)(nil)
