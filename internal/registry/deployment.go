package registry

import "reliefledger/internal/ledger"

// Deployment assigns a piece of equipment to a disaster site.
// EquipmentID is recorded as given; it is not checked against the equipment
// registry.
type Deployment struct {
	EquipmentID Reference `json:"equipmentId"`
	Location    string    `json:"location"`
	DisasterID  string    `json:"disasterId"`
}

const StatusActive ledger.Status = "active"

var DeploymentSchema = ledger.Schema{
	Name:          "deployment",
	OwnerField:    "deployer",
	DefaultStatus: StatusActive,
}

type DeploymentLedger = ledger.Ledger[Deployment]

func NewDeploymentLedger() *DeploymentLedger {
	return ledger.New[Deployment](DeploymentSchema)
}

type DeploymentRecord struct {
	ID          ledger.ID     `json:"id"`
	EquipmentID Reference     `json:"equipmentId"`
	Location    string        `json:"location"`
	DisasterID  string        `json:"disasterId"`
	Deployer    ledger.Actor  `json:"deployer"`
	Status      ledger.Status `json:"status"`
}

func ToDeploymentRecord(rec ledger.Record[Deployment]) DeploymentRecord {
	return DeploymentRecord{
		ID:          rec.ID,
		EquipmentID: rec.Payload.EquipmentID,
		Location:    rec.Payload.Location,
		DisasterID:  rec.Payload.DisasterID,
		Deployer:    rec.Owner,
		Status:      rec.Status,
	}
}
