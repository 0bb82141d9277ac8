package e2e

import (
	"github.com/cucumber/godog"

	"sapid/e2e/steps/common"
	"sapid/e2e/steps/consent"
	"sapid/e2e/steps/forms"
	"sapid/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	consent.RegisterSteps(ctx, tc)
	forms.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
