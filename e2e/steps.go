package e2e

import (
	"github.com/cucumber/godog"

	"verity/e2e/steps/analysis"
	"verity/e2e/steps/common"
	"verity/e2e/steps/kyc"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (service availability, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register KYC lifecycle steps
	kyc.RegisterSteps(ctx, tc)

	// Register stateless analysis steps
	analysis.RegisterSteps(ctx, tc)
}
