package registry

import "reliefledger/internal/ledger"

// Return records equipment coming back from a deployment. Neither reference
// is validated against the other registries.
type Return struct {
	DeploymentID Reference `json:"deploymentId"`
	EquipmentID  Reference `json:"equipmentId"`
	Condition    string    `json:"condition"`
	Location     string    `json:"location"`
}

const StatusProcessed ledger.Status = "processed"

var ReturnSchema = ledger.Schema{
	Name:          "return",
	OwnerField:    "returner",
	DefaultStatus: StatusProcessed,
}

type ReturnLedger = ledger.Ledger[Return]

func NewReturnLedger() *ReturnLedger {
	return ledger.New[Return](ReturnSchema)
}

type ReturnRecord struct {
	ID           ledger.ID     `json:"id"`
	DeploymentID Reference     `json:"deploymentId"`
	EquipmentID  Reference     `json:"equipmentId"`
	Condition    string        `json:"condition"`
	Location     string        `json:"location"`
	Returner     ledger.Actor  `json:"returner"`
	Status       ledger.Status `json:"status"`
}

func ToReturnRecord(rec ledger.Record[Return]) ReturnRecord {
	return ReturnRecord{
		ID:           rec.ID,
		DeploymentID: rec.Payload.DeploymentID,
		EquipmentID:  rec.Payload.EquipmentID,
		Condition:    rec.Payload.Condition,
		Location:     rec.Payload.Location,
		Returner:     rec.Owner,
		Status:       rec.Status,
	}
}
