package forms

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string, headers map[string]string) error
	DELETE(path string) error
	GetResponseField(field string) (any, error)
	Remember(name, value string)
}

// RegisterSteps registers form lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &formSteps{tc: tc}

	ctx.Step(`^I open a new "([^"]*)" form$`, steps.openForm)
	ctx.Step(`^I fill "([^"]*)" with "([^"]*)"$`, steps.fill)
	ctx.Step(`^I tick "([^"]*)" in "([^"]*)"$`, steps.tick)
	ctx.Step(`^I validate the form$`, steps.validate)
	ctx.Step(`^I submit the form$`, steps.submit)
	ctx.Step(`^I reload the form$`, steps.reload)
	ctx.Step(`^I close the form$`, steps.close)
	ctx.Step(`^I wait (\d+) seconds?$`, steps.wait)

	ctx.Step(`^the form should be (idle|submitting|succeeded)$`, steps.phaseShouldBe)
	ctx.Step(`^the error for "([^"]*)" should be "([^"]*)"$`, steps.errorShouldBe)
}

type formSteps struct {
	tc   TestContext
	kind string
	id   string
}

func (s *formSteps) path(suffix string) string {
	return "/api/forms/" + s.kind + "/" + s.id + suffix
}

func (s *formSteps) openForm(ctx context.Context, kind string) error {
	s.kind = kind
	if err := s.tc.POST("/api/forms/"+kind, nil); err != nil {
		return err
	}
	v, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return fmt.Errorf("created form has no id")
	}
	s.id = id
	s.tc.Remember("form_id", id)
	return nil
}

func (s *formSteps) fill(ctx context.Context, field, value string) error {
	return s.tc.PUT(s.path("/fields/"+field), map[string]string{"value": value})
}

func (s *formSteps) tick(ctx context.Context, option, field string) error {
	return s.tc.POST(s.path("/fields/"+field+"/toggle"), map[string]string{"option": option})
}

func (s *formSteps) validate(ctx context.Context) error {
	return s.tc.POST(s.path("/validate"), nil)
}

func (s *formSteps) submit(ctx context.Context) error {
	return s.tc.POST(s.path("/submit"), nil)
}

func (s *formSteps) reload(ctx context.Context) error {
	return s.tc.GET(s.path(""), nil)
}

func (s *formSteps) close(ctx context.Context) error {
	return s.tc.DELETE(s.path(""))
}

// wait relies on the server running with its configured submit timings.
func (s *formSteps) wait(ctx context.Context, seconds int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(seconds) * time.Second):
		return nil
	}
}

func (s *formSteps) phaseShouldBe(ctx context.Context, phase string) error {
	v, err := s.tc.GetResponseField("phase")
	if err != nil {
		return err
	}
	if v != phase {
		return fmt.Errorf("expected phase %q, got %v", phase, v)
	}
	return nil
}

func (s *formSteps) errorShouldBe(ctx context.Context, field, message string) error {
	v, err := s.tc.GetResponseField("errors")
	if err != nil {
		return err
	}
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("errors is not a list: %v", v)
	}
	for _, item := range list {
		e, _ := item.(map[string]any)
		if e["field"] == field {
			if e["message"] != message {
				return fmt.Errorf("expected %s error %q, got %v", field, message, e["message"])
			}
			return nil
		}
	}
	return fmt.Errorf("no error recorded for %s", field)
}
