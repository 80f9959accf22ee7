package client

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/redis"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/config"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/logging"
	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/middleware/circuitbreaker"
	axonetRedis "github.com/jaxron/axonet/middleware/redis"
	"github.com/jaxron/axonet/middleware/retry"
	"github.com/jaxron/axonet/middleware/singleflight"
	"github.com/jaxron/axonet/pkg/client"
	"github.com/jaxron/axonet/pkg/client/middleware"
	"github.com/jaxron/roapi.go/pkg/api"
	"go.uber.org/zap"
)

// ErrNoCookie is returned when the bot cookie file is missing or empty.
var ErrNoCookie = errors.New("no valid bot cookie found in cookie file")

// CacheTTL is how long Roblox API responses stay in the Redis response cache.
const CacheTTL = 1 * time.Hour

// GetRoAPIClient constructs a Roblox API client with a middleware chain for
// reliability and performance. The privileged bot cookie is loaded from
// <configDir>/credentials/cookie and also returned raw for write endpoints
// outside the read API surface.
func GetRoAPIClient(
	cfg *config.CommonConfig, configDir string, redisManager *redis.Manager,
	zapLogger *zap.Logger, requestTimeout time.Duration,
) (*api.API, string, error) {
	// Load the bot account cookie
	cookies, err := readCookies(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read bot cookie: %w", err)
	}

	// Get Redis client for response caching
	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, "", err
	}

	// Build middleware chain - order matters!
	middlewares := []middleware.Middleware{
		circuitbreaker.New(
			cfg.CircuitBreaker.MaxRequests,
			time.Duration(cfg.CircuitBreaker.Interval)*time.Millisecond,
			time.Duration(cfg.CircuitBreaker.Timeout)*time.Millisecond,
		),
		retry.New(
			cfg.Retry.MaxRetries,
			time.Duration(cfg.Retry.Delay)*time.Millisecond,
			time.Duration(cfg.Retry.MaxDelay)*time.Millisecond,
		),
		singleflight.New(),
		axonetRedis.New(cacheClient, CacheTTL),
	}

	roAPI := api.New(cookies,
		client.WithMarshalFunc(sonic.Marshal),
		client.WithUnmarshalFunc(sonic.Unmarshal),
		client.WithLogger(logging.NewAxonetLogger(zapLogger)),
		client.WithTimeout(requestTimeout),
		client.WithMiddleware(middlewares...),
	)

	return roAPI, cookies[0], nil
}

// readCookies loads the bot authentication cookie from a file, one cookie per
// line. Returns an error if no valid cookies are found.
func readCookies(configDir string) ([]string, error) {
	cookiesFile := configDir + "/credentials/cookie"

	file, err := os.Open(cookiesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer file.Close()

	// Read cookies line by line
	var cookies []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cookie := strings.TrimSpace(scanner.Text())
		if cookie != "" {
			cookies = append(cookies, cookie)
		}
	}

	// Check for any errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading cookie file: %w", err)
	}

	if len(cookies) == 0 {
		return nil, ErrNoCookie
	}

	return cookies, nil
}
