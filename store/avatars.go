package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deemkeen/dodo/util"
	"golang.org/x/sync/errgroup"
)

const AvatarFileName = "avatars.json"

// MaxAvatarAge is how long a cached avatar stays usable.
const MaxAvatarAge = 7 * 24 * time.Hour

// FetchConcurrency bounds simultaneous avatar downloads so we do not
// hammer the image host.
const FetchConcurrency = 5

const maxAvatarBytes = 1 * 1024 * 1024

type avatarEntry struct {
	DataUrl   string    `json:"data_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

type avatarDoc struct {
	Avatars map[string]avatarEntry `json:"avatars"`
}

// AvatarRequest names a handle to fetch and an optional source URL; when
// SourceUrl is empty a deterministic public fallback is used.
type AvatarRequest struct {
	Handle    string
	SourceUrl string
}

// AvatarCache maps normalized handles to base64 data URLs. Avatars are
// embedded rather than linked because the widget iframe's content policy
// may block third-party image hosts, which is also why entries are
// pruned aggressively by age and by relevance.
type AvatarCache struct {
	path    string
	mu      sync.Mutex
	entries map[string]avatarEntry
	client  *http.Client
	now     func() time.Time
}

// NewAvatarCache loads the avatar document at path. A missing or
// unparseable file is treated as an empty cache.
func NewAvatarCache(path string) *AvatarCache {
	c := &AvatarCache{
		path:    path,
		entries: make(map[string]avatarEntry),
		client:  &http.Client{Timeout: 15 * time.Second},
		now:     time.Now,
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Avatar cache %s unreadable, starting empty: %v", path, err)
		}
		return c
	}
	var doc avatarDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		log.Printf("Avatar cache %s corrupt, starting empty: %v", path, err)
		return c
	}
	if doc.Avatars != nil {
		c.entries = doc.Avatars
	}
	return c
}

// DefaultAvatarPath resolves the avatar file under the user config dir.
func DefaultAvatarPath() string {
	return util.ResolveFilePath(AvatarFileName)
}

// FallbackAvatarUrl is the deterministic public avatar source for a
// handle, used when the broker gave us no profile image.
func FallbackAvatarUrl(handle string) string {
	return fmt.Sprintf("https://unavatar.io/twitter/%s", util.NormalizeHandle(handle))
}

func (c *AvatarCache) save() {
	buf, err := json.MarshalIndent(avatarDoc{Avatars: c.entries}, "", "  ")
	if err != nil {
		log.Printf("Could not marshal avatar cache: %v", err)
		return
	}
	if dir := filepath.Dir(c.path); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	if err := os.WriteFile(c.path, buf, 0644); err != nil {
		log.Printf("Could not write avatar cache %s: %v", c.path, err)
	}
}

// Get returns the cached data URL for a handle. Expired entries are
// evicted as a side effect of the read.
func (c *AvatarCache) Get(handle string) (string, bool) {
	key := util.NormalizeHandle(handle)
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.FetchedAt) >= MaxAvatarAge {
		delete(c.entries, key)
		c.save()
		return "", false
	}
	return entry.DataUrl, true
}

// Set stores a data URL for a handle with the current fetch time.
func (c *AvatarCache) Set(handle string, dataUrl string) {
	key := util.NormalizeHandle(handle)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = avatarEntry{DataUrl: dataUrl, FetchedAt: c.now()}
	c.save()
}

// FetchOrGet returns the cached avatar or fetches and caches it. Any
// network failure yields a plain miss, never an error.
func (c *AvatarCache) FetchOrGet(ctx context.Context, handle string, sourceUrl string) (string, bool) {
	if dataUrl, ok := c.Get(handle); ok {
		return dataUrl, true
	}

	url := sourceUrl
	if url == "" {
		url = FallbackAvatarUrl(handle)
	}

	dataUrl, err := c.fetch(ctx, url)
	if err != nil {
		log.Printf("Avatar fetch for @%s failed: %v", util.NormalizeHandle(handle), err)
		return "", false
	}

	c.Set(handle, dataUrl)
	return dataUrl, true
}

// BatchFetch resolves avatars for all requests with at most
// FetchConcurrency in flight. Handles that could not be resolved are
// simply absent from the result.
func (c *AvatarCache) BatchFetch(ctx context.Context, requests []AvatarRequest) map[string]string {
	results := make(map[string]string)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(FetchConcurrency)

	for _, req := range requests {
		g.Go(func() error {
			dataUrl, ok := c.FetchOrGet(ctx, req.Handle, req.SourceUrl)
			if !ok {
				return nil
			}
			mu.Lock()
			results[util.NormalizeHandle(req.Handle)] = dataUrl
			mu.Unlock()
			return nil
		})
	}

	// Individual failures are swallowed above, so this never errors.
	g.Wait()
	return results
}

// PruneExpired drops every entry past MaxAvatarAge.
func (c *AvatarCache) PruneExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if c.now().Sub(entry.FetchedAt) >= MaxAvatarAge {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.save()
	}
	return removed
}

// PruneNotIn drops every handle absent from the active set.
func (c *AvatarCache) PruneNotIn(activeHandles map[string]bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if !activeHandles[key] {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.save()
	}
	return removed
}

func (c *AvatarCache) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", util.GetNameAndVersion())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar host returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", fmt.Errorf("avatar host returned empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(body)), nil
}
