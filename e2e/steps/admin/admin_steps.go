package admin

import (
	"context"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Admin(method, path string, body any) error
	JTIFor(actor string) (string, error)
}

// RegisterSteps registers admin token step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^the admin revokes the token of "([^"]*)"$`, steps.revoke)
	ctx.Step(`^the admin requests a token for "([^"]*)"$`, steps.requestToken)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) revoke(_ context.Context, actor string) error {
	jti, err := s.tc.JTIFor(actor)
	if err != nil {
		return err
	}
	return s.tc.Admin(http.MethodPost, "/admin/tokens/revoke", map[string]string{"jti": jti})
}

func (s *adminSteps) requestToken(_ context.Context, actor string) error {
	return s.tc.Admin(http.MethodPost, "/admin/tokens", map[string]string{"actor": actor})
}
