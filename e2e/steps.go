package e2e

import (
	"github.com/cucumber/godog"

	"reliefledger/e2e/steps/admin"
	"reliefledger/e2e/steps/common"
	"reliefledger/e2e/steps/ledger"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	ledger.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
