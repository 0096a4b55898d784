package service

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
)

const maxInputFileSize = 10 * 1024 * 1024

// Validator checks user supplied file paths and feed URLs.
type Validator struct {
	// AllowPrivate accepts feed URLs pointing at loopback or private networks.
	AllowPrivate bool
}

func NewValidator(allowPrivate bool) *Validator {
	return &Validator{AllowPrivate: allowPrivate}
}

// ValidateFilePath checks that filePath names a readable regular file of a
// reasonable size with one of the given extensions.
func (v *Validator) ValidateFilePath(filePath string, extensions ...string) error {
	if strings.TrimSpace(filePath) == "" {
		return errors.New("file path is empty")
	}

	cleanPath := filepath.Clean(filePath)
	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." || strings.HasPrefix(part, "~") {
			return fmt.Errorf("path contains illegal segment: %s", cleanPath)
		}
	}

	if len(extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(cleanPath))
		allowed := false
		for _, e := range extensions {
			if ext == strings.ToLower(e) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("unsupported file type %q, want one of %v", ext, extensions)
		}
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", cleanPath)
	}
	if info.Size() > maxInputFileSize {
		return fmt.Errorf("file too large (>10MB): %s", cleanPath)
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	file.Close()

	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL. Unless
// AllowPrivate is set, loopback, private and link-local hosts are refused.
func (v *Validator) ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("url is empty")
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http and https are allowed: %s", rawURL)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("url has no host: %s", rawURL)
	}

	if v.AllowPrivate {
		return nil
	}
	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("internal address not allowed: %s", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return fmt.Errorf("internal address not allowed: %s", host)
		}
	}
	return nil
}

// FilterFeeds drops feeds whose URL does not validate, logging each one.
func (v *Validator) FilterFeeds(sources []model.FeedSource) []model.FeedSource {
	valid := make([]model.FeedSource, 0, len(sources))
	for _, src := range sources {
		if err := v.ValidateURL(src.XMLURL); err != nil {
			logger.Warn("skipping feed", "title", src.Title, "url", src.XMLURL, "reason", err)
			continue
		}
		valid = append(valid, src)
	}
	return valid
}
