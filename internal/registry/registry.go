// Package registry instantiates the generic ledger for the three relief
// registries: equipment inventory, deployments and returns. The registries
// are independent; none validates references into another.
package registry

// Ledgers groups one ledger per registry for a single host instance.
type Ledgers struct {
	Equipment   *EquipmentLedger
	Deployments *DeploymentLedger
	Returns     *ReturnLedger
}

// NewLedgers returns three empty ledgers.
func NewLedgers() *Ledgers {
	return &Ledgers{
		Equipment:   NewEquipmentLedger(),
		Deployments: NewDeploymentLedger(),
		Returns:     NewReturnLedger(),
	}
}
