package artifact

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheEnvVar        = "RESONANCE_CACHE_DIR"
	cacheSubdir        = "resonance/artifacts"
	cacheTTL           = 24 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	defaultHTTPTimeout = 90 * time.Second
)

// imageCache keeps fetched artifact renders on disk so a restored session
// can re-export its card without hitting the image service again.
type imageCache struct {
	dir    string
	client *http.Client
}

type imageCacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

func newImageCache(dir string, client *http.Client) (*imageCache, error) {
	if dir == "" {
		dir = os.Getenv(cacheEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "resonance-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &imageCache{dir: dir, client: client}, nil
}

// Fetch returns a local path holding the image at imageURL, downloading or
// revalidating as needed. A stale-but-complete file is served when the
// refresh attempt fails.
func (c *imageCache) Fetch(ctx context.Context, imageURL string) (string, error) {
	key := cacheKey(imageURL)
	imagePath, metaPath, partialPath := c.pathsFor(key)

	if info, err := os.Stat(imagePath); err == nil && time.Since(info.ModTime()) < cacheTTL && info.Size() > 0 {
		return imagePath, nil
	}

	meta, _ := readMeta(metaPath)
	info, _ := os.Stat(imagePath)
	path, err := c.download(ctx, imageURL, imagePath, metaPath, partialPath, meta, info)
	if err == nil {
		return path, nil
	}
	if info != nil && info.Size() > 0 {
		return imagePath, nil
	}
	return "", err
}

func (c *imageCache) download(ctx context.Context, imageURL, imagePath, metaPath, partialPath string, meta imageCacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			writeMeta(metaPath, meta)
			return imagePath, nil
		}
		return c.download(ctx, imageURL, imagePath, metaPath, partialPath, imageCacheMeta{}, nil)
	case http.StatusOK:
		return c.saveBody(resp, imagePath, metaPath, partialPath, false)
	case http.StatusPartialContent:
		return c.saveBody(resp, imagePath, metaPath, partialPath, partialSize > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("image download failed: %s (%s)", resp.Status, string(body))
	}
}

func (c *imageCache) saveBody(resp *http.Response, imagePath, metaPath, partialPath string, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(partialPath, imagePath); err != nil {
		return "", err
	}

	meta := imageCacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(imagePath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return "", err
	}
	return imagePath, nil
}

func (c *imageCache) pathsFor(key string) (string, string, string) {
	return filepath.Join(c.dir, key+".img"), filepath.Join(c.dir, key+metaSuffix), filepath.Join(c.dir, key+partialSuffix)
}

func cacheKey(imageURL string) string {
	sum := sha1.Sum([]byte(imageURL))
	return hex.EncodeToString(sum[:])
}

func readMeta(path string) (imageCacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imageCacheMeta{}, err
	}
	var meta imageCacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return imageCacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta imageCacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
