package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseHeader(key string) string
}

// RegisterSteps registers write-throttling step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I POST to "([^"]*)" (\d+) times$`, steps.postNTimes)
	ctx.Step(`^at least one request should have been throttled$`, steps.someThrottled)
	ctx.Step(`^the last response should carry rate limit headers$`, steps.rateLimitHeaders)
}

type ratelimitSteps struct {
	tc        TestContext
	throttled int
}

func (s *ratelimitSteps) postNTimes(ctx context.Context, path string, n int) error {
	s.throttled = 0
	for range n {
		if err := s.tc.POST(path, nil); err != nil {
			return err
		}
		if s.tc.GetLastResponseStatus() == 429 {
			s.throttled++
		}
	}
	return nil
}

func (s *ratelimitSteps) someThrottled(ctx context.Context) error {
	if s.throttled == 0 {
		return fmt.Errorf("no request was throttled")
	}
	return nil
}

func (s *ratelimitSteps) rateLimitHeaders(ctx context.Context) error {
	if _, err := strconv.Atoi(s.tc.GetLastResponseHeader("X-RateLimit-Limit")); err != nil {
		return fmt.Errorf("missing X-RateLimit-Limit header")
	}
	if s.tc.GetLastResponseStatus() == 429 && s.tc.GetLastResponseHeader("Retry-After") == "" {
		return fmt.Errorf("throttled response has no Retry-After")
	}
	return nil
}
