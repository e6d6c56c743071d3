package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/superio/interview-server-go/internal/redis"
	"github.com/superio/interview-server-go/internal/util"
)

const (
	resumeFetchTimeout = 15 * time.Second
	maxResumeBytes     = 10 << 20
)

var ErrResumeNotFound = errors.New("resume file not found")

// ResumeExtractor turns an opaque resume reference into plain text.
type ResumeExtractor interface {
	ExtractText(ctx context.Context, ref string) (string, error)
}

// PDFResumeExtractor reads PDFs from a local uploads directory or over HTTP.
type PDFResumeExtractor struct {
	dir    string
	client *http.Client
}

func NewPDFResumeExtractor(dir string) *PDFResumeExtractor {
	return &PDFResumeExtractor{
		dir:    dir,
		client: &http.Client{Timeout: resumeFetchTimeout},
	}
}

func (e *PDFResumeExtractor) ExtractText(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", ErrResumeNotFound
	}

	data, err := e.load(ctx, ref)
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return collapseBlankLines(buf.String()), nil
}

func (e *PDFResumeExtractor) load(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return e.fetch(ctx, ref)
	}

	// Stored references may carry a leading "uploads/" or "/"; only the base
	// name is trusted so a reference cannot escape the resume directory.
	path := filepath.Join(e.dir, filepath.Base(ref))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	return data, nil
}

func (e *PDFResumeExtractor) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch resume: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrResumeNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch resume: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResumeBytes))
}

// CachedResumeExtractor memoizes successful extractions in redis.
type CachedResumeExtractor struct {
	next   ResumeExtractor
	client *goredis.Client
	ttl    time.Duration
}

func NewCachedResumeExtractor(next ResumeExtractor, client *goredis.Client, ttl time.Duration) *CachedResumeExtractor {
	return &CachedResumeExtractor{next: next, client: client, ttl: ttl}
}

func (c *CachedResumeExtractor) ExtractText(ctx context.Context, ref string) (string, error) {
	key := redis.ResumeTextKey(util.HashRef(ref))

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, goredis.Nil) {
		log.Warn().Err(err).Msg("resume cache read failed")
	}

	text, err := c.next.ExtractText(ctx, ref)
	if err != nil {
		return "", err
	}

	if text != "" {
		if err := c.client.Set(ctx, key, text, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("resume cache write failed")
		}
	}
	return text, nil
}
