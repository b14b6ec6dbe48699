// Package geoip resolves client IPs to a "City, Country" string for the login
// audit log. Lookups are best effort: any failure yields an empty location.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const cacheTTL = 6 * time.Hour

type Client struct {
	// URL holds one %s verb for the IP, e.g. https://ipapi.co/%s/json/
	URL  string
	HTTP *http.Client
	log  *logrus.Entry

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cached
	now   func() time.Time
}

type cached struct {
	location string
	expires  time.Time
}

type response struct {
	City        string `json:"city"`
	Region      string `json:"region"`
	CountryName string `json:"country_name"`
	Error       bool   `json:"error"`
}

func New(url string, timeout time.Duration, log *logrus.Entry) *Client {
	return &Client{
		URL:   url,
		HTTP:  &http.Client{Timeout: timeout},
		log:   log,
		cache: make(map[string]cached),
		now:   time.Now,
	}
}

// Lookup never fails; private and loopback addresses resolve to "Local network".
func (c *Client) Lookup(ctx context.Context, ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || parsed.IsPrivate() {
		return "Local network"
	}

	c.mu.Lock()
	if hit, ok := c.cache[ip]; ok && c.now().Before(hit.expires) {
		c.mu.Unlock()
		return hit.location
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(ip, func() (any, error) {
		loc, err := c.fetch(ctx, ip)
		if err != nil {
			c.log.WithError(err).WithField("ip", ip).Debug("geoip lookup failed")
			return "", nil
		}
		c.mu.Lock()
		c.cache[ip] = cached{location: loc, expires: c.now().Add(cacheTTL)}
		c.mu.Unlock()
		return loc, nil
	})
	return v.(string)
}

func (c *Client) fetch(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.URL, ip), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "depo-backend")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geoip status %d", resp.StatusCode)
	}
	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Error {
		return "", fmt.Errorf("geoip refused %s", ip)
	}
	return formatLocation(body), nil
}

func formatLocation(r response) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{r.City, r.CountryName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
