package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxLogoBytes = 512 * 1024

// Logos caches employer logos so the UI never hotlinks the job board CDN.
type Logos struct {
	db    *sql.DB
	hc    *http.Client
	log   *zap.Logger
	hosts []string
}

// NewLogos only fetches from hosts ending in one of allowedHosts.
func NewLogos(db *sql.DB, hc *http.Client, logger *zap.Logger, allowedHosts ...string) *Logos {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Logos{db: db, hc: hc, log: logger.Named("logos"), hosts: allowedHosts}
}

func LogoKeyFromURL(u string) string {
	h := sha256.Sum256([]byte(u))
	return hex.EncodeToString(h[:])
}

func (l *Logos) allowed(host string) bool {
	host = strings.ToLower(host)
	for _, h := range l.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Cache stores the image at raw and returns its key. Anything that is not a
// small image from an allowed host yields "" without an error.
func (l *Logos) Cache(ctx context.Context, raw string) (key string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	pu, err := url.Parse(raw)
	if err != nil || pu.Scheme == "" || pu.Host == "" || !l.allowed(pu.Hostname()) {
		return "", nil
	}

	key = LogoKeyFromURL(raw)

	var exists int
	e := l.db.QueryRowContext(ctx, `SELECT 1 FROM logos WHERE key = ? LIMIT 1;`, key).Scan(&exists)
	if e == nil {
		return key, nil
	}
	if !errors.Is(e, sql.ErrNoRows) {
		return "", e
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := l.hc.Do(req)
	if err != nil {
		l.log.Debug("logo fetch failed", zap.String("url", raw), zap.Error(err))
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		l.log.Debug("logo non-2xx", zap.String("url", raw), zap.String("status", resp.Status))
		return "", nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil || len(b) == 0 || len(b) > maxLogoBytes {
		return "", nil
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		sn := http.DetectContentType(b)
		if !strings.HasPrefix(sn, "image/") {
			return "", nil
		}
		ct = sn
	}

	_, err = l.db.ExecContext(ctx, `
INSERT OR REPLACE INTO logos(key, content_type, bytes, fetched_at)
VALUES(?,?,?,?);`, key, ct, b, formatTime(time.Now()))
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get returns a cached logo. sql.ErrNoRows means the key is unknown.
func (l *Logos) Get(ctx context.Context, key string) (contentType string, body []byte, err error) {
	err = l.db.QueryRowContext(ctx,
		`SELECT content_type, bytes FROM logos WHERE key = ? LIMIT 1;`, key,
	).Scan(&contentType, &body)
	return contentType, body, err
}
