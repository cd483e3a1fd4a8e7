package registry

import "reliefledger/internal/ledger"

// Equipment is the payload of an inventory record.
type Equipment struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Serial string `json:"serial"`
}

const StatusAvailable ledger.Status = "available"

// EquipmentSchema registers equipment under its owner.
var EquipmentSchema = ledger.Schema{
	Name:          "equipment",
	OwnerField:    "owner",
	DefaultStatus: StatusAvailable,
}

// EquipmentLedger stores equipment inventory records.
type EquipmentLedger = ledger.Ledger[Equipment]

func NewEquipmentLedger() *EquipmentLedger {
	return ledger.New[Equipment](EquipmentSchema)
}

// EquipmentRecord is the read model returned to callers.
type EquipmentRecord struct {
	ID     ledger.ID     `json:"id"`
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Serial string        `json:"serial"`
	Owner  ledger.Actor  `json:"owner"`
	Status ledger.Status `json:"status"`
}

func ToEquipmentRecord(rec ledger.Record[Equipment]) EquipmentRecord {
	return EquipmentRecord{
		ID:     rec.ID,
		Name:   rec.Payload.Name,
		Type:   rec.Payload.Type,
		Serial: rec.Payload.Serial,
		Owner:  rec.Owner,
		Status: rec.Status,
	}
}
