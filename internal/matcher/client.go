// Package matcher is a thin typed client for the remote résumé matching service.
package matcher

import (
	"net/http"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/logger"

	"go.uber.org/zap"
)

const (
	userAgent = "spigell/job-matcher"

	matchPath      = "/api/match"
	updateJobsPath = "/api/update-jobs"
	jobCountPath   = "/api/job-count"

	DefaultTimeout = 30 * time.Second
	// Max characters of a remote error body written to logs.
	maxBodyLogLength = 300
)

// Client holds no workflow state; each method is a single request/response
// without retries.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(log *zap.Logger, baseURL string) *Client {
	return &Client{
		APIURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:    logger.WithFields(log),
		UserAgent: userAgent,
	}
}

func (c *Client) url(path string) string {
	return c.APIURL + path
}
