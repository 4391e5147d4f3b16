package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/platform"
)

const (
	userAgent        = "m-version-manager"
	maxAttempts      = 3
	githubPageSize   = 100
	githubMaxPages   = 10
	defaultTimeout   = 30 * time.Second
	initialRetryWait = 250 * time.Millisecond
)

// Endpoints locates each family's feed.
type Endpoints struct {
	ServerFeedURL      string
	ToolsFeedURL       string
	MongoshReleasesURL string
	MongoshDownloadURL string
}

// HTTPSource reads the public MongoDB feeds.
type HTTPSource struct {
	Endpoints   Endpoints
	Target      platform.Target
	GitHubToken string
	Client      *http.Client
	Log         *log.Logger
	// RetryWait is the first backoff interval; zero uses the default.
	RetryWait time.Duration
	now       func() time.Time
}

// NewHTTPSource returns a source for target.
func NewHTTPSource(endpoints Endpoints, target platform.Target, logger *log.Logger) *HTTPSource {
	return &HTTPSource{
		Endpoints: endpoints,
		Target:    target,
		Client:    &http.Client{Timeout: defaultTimeout},
		Log:       logger,
	}
}

// RateLimitError indicates GitHub's API rate limit was hit.
type RateLimitError struct {
	StatusCode int
	Status     string
	Remaining  *int
}

func (e *RateLimitError) Error() string {
	remainingText := "unknown"
	if e.Remaining != nil {
		remainingText = strconv.Itoa(*e.Remaining)
	}
	return fmt.Sprintf(messages.FeedRateLimitFmt, e.Status, remainingText)
}

// IsRateLimitError reports whether err represents a GitHub API rate-limit condition.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, f family.Family) (Snapshot, error) {
	if s.Log != nil {
		s.Log.Debug(messages.FeedFetching, "family", f)
	}
	var (
		releases []Release
		err      error
	)
	switch f {
	case family.Server:
		releases, err = s.fetchServer(ctx, false)
	case family.LegacyShell:
		releases, err = s.fetchServer(ctx, true)
	case family.Tools:
		releases, err = s.fetchTools(ctx)
	case family.ModernShell:
		releases, err = s.fetchMongosh(ctx)
	default:
		return Snapshot{}, fmt.Errorf(messages.FeedUnknownFamilyFmt, f)
	}
	if err != nil {
		return Snapshot{}, err
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return Snapshot{Family: f, Target: TargetKey(s.Target), Releases: releases, FetchedAt: now()}, nil
}

// TargetKey identifies the host a snapshot's download URLs were chosen for.
func TargetKey(t platform.Target) string {
	return t.Distro + "/" + t.Arch
}

type archiveRef struct {
	URL string `json:"url"`
}

type serverFeed struct {
	Versions []struct {
		Version           string `json:"version"`
		ProductionRelease *bool  `json:"production_release"`
		Downloads         []struct {
			Target  string     `json:"target"`
			Arch    string     `json:"arch"`
			Edition string     `json:"edition"`
			Archive archiveRef `json:"archive"`
			Shell   archiveRef `json:"shell"`
		} `json:"downloads"`
	} `json:"versions"`
}

// fetchServer reads full.json. With shellOnly, only versions that ship a
// standalone legacy shell archive for the host are returned.
func (s *HTTPSource) fetchServer(ctx context.Context, shellOnly bool) ([]Release, error) {
	var payload serverFeed
	if err := s.getJSON(ctx, s.Endpoints.ServerFeedURL, false, &payload); err != nil {
		return nil, err
	}
	aliases := s.Target.ArchAliases()
	out := make([]Release, 0, len(payload.Versions))
	for _, entry := range payload.Versions {
		rel := Release{Version: entry.Version, Stable: entry.ProductionRelease}
		for _, dl := range entry.Downloads {
			if dl.Target != s.Target.Distro || !slices.Contains(aliases, dl.Arch) {
				continue
			}
			if dl.Edition != "" && dl.Edition != "targeted" && dl.Edition != "base" {
				continue
			}
			if shellOnly {
				rel.URL = dl.Shell.URL
			} else {
				rel.URL = dl.Archive.URL
			}
			if rel.URL != "" {
				break
			}
		}
		if shellOnly && rel.URL == "" {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

type toolsFeed struct {
	Versions []struct {
		Version   string `json:"version"`
		Downloads []struct {
			Name    string     `json:"name"`
			Arch    string     `json:"arch"`
			Archive archiveRef `json:"archive"`
		} `json:"downloads"`
	} `json:"versions"`
}

func (s *HTTPSource) fetchTools(ctx context.Context) ([]Release, error) {
	var payload toolsFeed
	if err := s.getJSON(ctx, s.Endpoints.ToolsFeedURL, false, &payload); err != nil {
		return nil, err
	}
	aliases := s.Target.ArchAliases()
	out := make([]Release, 0, len(payload.Versions))
	for _, entry := range payload.Versions {
		rel := Release{Version: entry.Version}
		for _, dl := range entry.Downloads {
			if dl.Name == s.Target.Distro && slices.Contains(aliases, dl.Arch) {
				rel.URL = dl.Archive.URL
				break
			}
		}
		out = append(out, rel)
	}
	return out, nil
}

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

func (s *HTTPSource) fetchMongosh(ctx context.Context) ([]Release, error) {
	osName, arch, ext := s.Target.ShellPlatform()
	var out []Release
	for page := 1; page <= githubMaxPages; page++ {
		url := fmt.Sprintf("%s?per_page=%d&page=%d", s.Endpoints.MongoshReleasesURL, githubPageSize, page)
		var batch []githubRelease
		if err := s.getJSON(ctx, url, true, &batch); err != nil {
			return nil, err
		}
		for _, rel := range batch {
			if rel.Draft || rel.Prerelease {
				continue
			}
			raw := strings.TrimPrefix(strings.TrimSpace(rel.TagName), "v")
			out = append(out, Release{
				Version: raw,
				URL:     fmt.Sprintf(messages.FeedModernShellURLFmt, strings.TrimRight(s.Endpoints.MongoshDownloadURL, "/"), raw, osName, arch, ext),
			})
		}
		if len(batch) < githubPageSize {
			break
		}
	}
	return out, nil
}

// getJSON GETs url into out, retrying network errors and 5xx responses.
func (s *HTTPSource) getJSON(ctx context.Context, url string, github bool, out any) error {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	wait := s.RetryWait
	if wait <= 0 {
		wait = initialRetryWait
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = wait
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, maxAttempts-1), ctx)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf(messages.FeedCreateRequestFmt, url, err))
		}
		req.Header.Set("User-Agent", userAgent)
		if github {
			req.Header.Set("Accept", "application/vnd.github+json")
			if s.GitHubToken != "" {
				req.Header.Set("Authorization", "Bearer "+s.GitHubToken)
			}
		}
		resp, err := client.Do(req)
		if err != nil {
			if retryableErr(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			if rl := rateLimitErrorFromResponse(resp); rl != nil {
				return backoff.Permanent(rl)
			}
			statusErr := fmt.Errorf(messages.FeedUnexpectedStatusFmt, resp.Status)
			if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf(messages.FeedDecodeFmt, failure.ErrTransport, url, err))
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		if s.Log != nil {
			s.Log.Debug(messages.FeedRetrying, "url", url, "err", err, "wait", next)
		}
	}
	err := backoff.RetryNotify(op, retry, notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, failure.ErrTransport) {
		return err
	}
	return fmt.Errorf(messages.FeedFetchFmt, failure.ErrTransport, url, err)
}

func retryableErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func rateLimitErrorFromResponse(resp *http.Response) *RateLimitError {
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	// GitHub answers 403 on exhaustion; only the header confirms it.
	if resp.StatusCode == http.StatusForbidden {
		remaining, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining")))
		if err == nil && remaining == 0 {
			return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Remaining: &remaining}
		}
	}
	return nil
}
