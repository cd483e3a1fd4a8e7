package ledger

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Send(actor, method, path string, body any) error
	IssueToken(actor string) error
	Remember(alias string) error
	IDOf(alias string) (uint64, error)
}

// RegisterSteps registers registry step definitions. Records are referred to
// by a scenario alias because ids are shared with everything else the server
// has stored.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	ctx.Step(`^actor "([^"]*)" holds a token$`, steps.holdsToken)
	ctx.Step(`^"([^"]*)" registers equipment "([^"]*)" of type "([^"]*)" with serial "([^"]*)"$`, steps.registerEquipment)
	ctx.Step(`^"([^"]*)" deploys "([^"]*)" to "([^"]*)" for disaster "([^"]*)"$`, steps.deploy)
	ctx.Step(`^"([^"]*)" returns "([^"]*)" from "([^"]*)" in "([^"]*)" condition$`, steps.fileReturn)
	ctx.Step(`^the new record is known as "([^"]*)"$`, steps.remember)
	ctx.Step(`^"([^"]*)" sets the status of (equipment|deployment|return) "([^"]*)" to "([^"]*)"$`, steps.setStatus)
	ctx.Step(`^"([^"]*)" fetches (equipment|deployment|return) "([^"]*)"$`, steps.fetch)
	ctx.Step(`^"([^"]*)" fetches (equipment|deployment|return) (\d+)$`, steps.fetchByID)
}

var collections = map[string]string{
	"equipment":  "/equipment",
	"deployment": "/deployments",
	"return":     "/returns",
}

type ledgerSteps struct {
	tc TestContext
}

func (s *ledgerSteps) holdsToken(_ context.Context, actor string) error {
	return s.tc.IssueToken(actor)
}

func (s *ledgerSteps) remember(_ context.Context, alias string) error {
	return s.tc.Remember(alias)
}

func (s *ledgerSteps) registerEquipment(_ context.Context, actor, name, kind, serial string) error {
	return s.tc.Send(actor, http.MethodPost, "/equipment", map[string]any{
		"name":   name,
		"type":   kind,
		"serial": serial,
	})
}

func (s *ledgerSteps) deploy(_ context.Context, actor, equipment, location, disasterID string) error {
	equipmentID, err := s.tc.IDOf(equipment)
	if err != nil {
		return err
	}
	return s.tc.Send(actor, http.MethodPost, "/deployments", map[string]any{
		"equipmentId": equipmentID,
		"location":    location,
		"disasterId":  disasterID,
	})
}

func (s *ledgerSteps) fileReturn(_ context.Context, actor, equipment, deployment, condition string) error {
	equipmentID, err := s.tc.IDOf(equipment)
	if err != nil {
		return err
	}
	deploymentID, err := s.tc.IDOf(deployment)
	if err != nil {
		return err
	}
	return s.tc.Send(actor, http.MethodPost, "/returns", map[string]any{
		"equipmentId":  equipmentID,
		"deploymentId": deploymentID,
		"condition":    condition,
	})
}

func (s *ledgerSteps) setStatus(_ context.Context, actor, kind, alias, status string) error {
	id, err := s.tc.IDOf(alias)
	if err != nil {
		return err
	}
	return s.tc.Send(actor, http.MethodPut, fmt.Sprintf("%s/%d/status", collections[kind], id),
		map[string]string{"status": status})
}

func (s *ledgerSteps) fetch(ctx context.Context, actor, kind, alias string) error {
	id, err := s.tc.IDOf(alias)
	if err != nil {
		return err
	}
	return s.fetchByID(ctx, actor, kind, int(id))
}

func (s *ledgerSteps) fetchByID(_ context.Context, actor, kind string, id int) error {
	return s.tc.Send(actor, http.MethodGet, fmt.Sprintf("%s/%d", collections[kind], id), nil)
}
