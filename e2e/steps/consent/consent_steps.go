package consent

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers cookie consent step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &consentSteps{tc: tc}

	ctx.Step(`^I visit the site$`, steps.visit)
	ctx.Step(`^I accept all cookies$`, steps.acceptAll)
	ctx.Step(`^I reject all cookies$`, steps.rejectAll)
	ctx.Step(`^I open the cookie settings$`, steps.openSettings)
	ctx.Step(`^I toggle the "([^"]*)" category$`, steps.toggle)
	ctx.Step(`^I save my cookie preferences$`, steps.save)
	ctx.Step(`^I close the cookie settings without saving$`, steps.closeSettings)

	ctx.Step(`^the cookie banner should be (shown|hidden)$`, steps.bannerShouldBe)
	ctx.Step(`^the cookie settings should be (shown|hidden)$`, steps.settingsShouldBe)
	ctx.Step(`^"([^"]*)" cookies should be (allowed|blocked)$`, steps.categoryShouldBe)
}

type consentSteps struct {
	tc TestContext
}

func (s *consentSteps) visit(ctx context.Context) error {
	return s.tc.GET("/api/consent", nil)
}

func (s *consentSteps) acceptAll(ctx context.Context) error {
	return s.tc.POST("/api/consent/accept-all", nil)
}

func (s *consentSteps) rejectAll(ctx context.Context) error {
	return s.tc.POST("/api/consent/reject-all", nil)
}

func (s *consentSteps) openSettings(ctx context.Context) error {
	return s.tc.POST("/api/consent/settings/open", nil)
}

func (s *consentSteps) toggle(ctx context.Context, category string) error {
	return s.tc.POST("/api/consent/categories/"+category+"/toggle", nil)
}

func (s *consentSteps) save(ctx context.Context) error {
	return s.tc.POST("/api/consent/save", nil)
}

func (s *consentSteps) closeSettings(ctx context.Context) error {
	return s.tc.POST("/api/consent/settings/close", nil)
}

func (s *consentSteps) bannerShouldBe(ctx context.Context, state string) error {
	return s.flagShouldBe("show_banner", state == "shown")
}

func (s *consentSteps) settingsShouldBe(ctx context.Context, state string) error {
	return s.flagShouldBe("show_settings", state == "shown")
}

func (s *consentSteps) categoryShouldBe(ctx context.Context, category, state string) error {
	return s.flagShouldBe("preferences."+category, state == "allowed")
}

func (s *consentSteps) flagShouldBe(field string, want bool) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%s is not a boolean: %v", field, v)
	}
	if got != want {
		return fmt.Errorf("expected %s to be %t", field, want)
	}
	return nil
}
