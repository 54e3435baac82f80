// Package pubchem looks up compound titles and molecular weights through the
// PubChem PUG REST API and caches the answers on disk.
package pubchem

import (
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov"

// DefaultRate is the request rate PubChem asks clients to stay under.
const DefaultRate = 5

var safepathRE = regexp.MustCompile(`[^a-z0-9\._-]+`)

var ErrEmptyQuery = errors.New("enter a chemical name to search")

func init() {
	gob.Register(Record{})
}

type Record struct {
	CID             int
	Title           string
	MolecularWeight float64
}

type NotExistsError struct{ name string }

func (n NotExistsError) Error() string {
	return fmt.Sprintf("no such compound: '%s'", n.name)
}

type StatusError struct {
	Code int
	URL  string
}

func (s StatusError) Error() string {
	return fmt.Sprintf("pubchem lookup failed: %s: %d %s", s.URL, s.Code, http.StatusText(s.Code))
}

type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Limiter  *rate.Limiter
	CacheDir string
	Logger   *slog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.BaseURL = strings.TrimRight(u, "/") } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

// WithRate limits requests to n per second, n <= 0 disables limiting.
func WithRate(n float64) Option {
	return func(c *Client) {
		if n <= 0 {
			c.Limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.Limiter = rate.NewLimiter(rate.Limit(n), max(1, int(n)))
	}
}

// WithCacheDir enables the on-disk cache, an empty dir disables it.
func WithCacheDir(dir string) Option { return func(c *Client) { c.CacheDir = dir } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.Logger = l } }

func New(opts ...Option) *Client {
	c := &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Limiter: rate.NewLimiter(rate.Every(time.Second/DefaultRate), DefaultRate),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) SearchURL(query string) string {
	return fmt.Sprintf("%s/#query=%s", c.BaseURL, url.QueryEscape(strings.TrimSpace(query)))
}

func (c *Client) RecordURL(cid int) string {
	return fmt.Sprintf("%s/compound/%d", c.BaseURL, cid)
}

func (c *Client) propertyURL(name string) string {
	return fmt.Sprintf(
		"%s/rest/pug/compound/name/%s/property/MolecularWeight,Title/JSON",
		c.BaseURL,
		url.PathEscape(name),
	)
}

// Lookup returns the first compound PubChem matches for name.
func (c *Client) Lookup(ctx context.Context, name string) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, ErrEmptyQuery
	}

	cache := c.cachePath(name)
	if cache != "" {
		r, err := readCache(cache)
		if err == nil {
			c.Logger.Debug("pubchem cache hit", "name", name, "cid", r.CID)
			return r, nil
		}
		if !os.IsNotExist(err) {
			c.Logger.Warn("pubchem cache unreadable", "path", cache, "err", err)
		}
	}

	r, err := c.get(ctx, name)
	if err != nil {
		return r, err
	}

	if cache != "" {
		if err := writeCache(cache, r); err != nil {
			c.Logger.Warn("pubchem cache write failed", "path", cache, "err", err)
		}
	}

	return r, nil
}

type weight float64

func (w *weight) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid molecular weight %s: %w", b, err)
	}
	*w = weight(v)
	return nil
}

type propertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID             int    `json:"CID"`
			MolecularWeight weight `json:"MolecularWeight"`
			Title           string `json:"Title"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

func (c *Client) get(ctx context.Context, name string) (Record, error) {
	var r Record
	if err := c.Limiter.Wait(ctx); err != nil {
		return r, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.propertyURL(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return r, err
	}
	req.Header.Set("Accept", "application/json")

	s := time.Now()
	res, err := c.HTTP.Do(req)
	if err != nil {
		return r, err
	}
	defer res.Body.Close()
	c.Logger.Debug("pubchem request", "url", u, "status", res.StatusCode, "took", time.Since(s))

	switch {
	case res.StatusCode == http.StatusNotFound:
		return r, NotExistsError{name: name}
	case res.StatusCode < 200 || res.StatusCode > 299:
		return r, StatusError{Code: res.StatusCode, URL: u}
	}

	var data propertyResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return r, fmt.Errorf("decoding pubchem response: %w", err)
	}
	if len(data.PropertyTable.Properties) == 0 {
		return r, NotExistsError{name: name}
	}

	p := data.PropertyTable.Properties[0]
	r = Record{CID: p.CID, Title: p.Title, MolecularWeight: float64(p.MolecularWeight)}
	if r.Title == "" {
		r.Title = name
	}

	return r, nil
}

func (c *Client) cachePath(name string) string {
	if c.CacheDir == "" {
		return ""
	}
	key := strings.ToLower(name)
	filename := strings.Trim(safepathRE.ReplaceAllString(key, "-"), "-")
	sum := sha1.Sum([]byte(key))
	filename = fmt.Sprintf("compound-%s-%s", filename, hex.EncodeToString(sum[:4]))
	return filepath.Join(c.CacheDir, filename)
}

func readCache(path string) (Record, error) {
	var r Record
	f, err := os.Open(path)
	if err != nil {
		return r, err
	}
	defer f.Close()
	err = gob.NewDecoder(f).Decode(&r)
	return r, err
}

func writeCache(path string, r Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
