package audit

import "time"

// Event records one security-relevant wallet action. Subject is the account
// instance (or registry key) acted on; Principal is who authenticated, if anyone.
type Event struct {
	Timestamp time.Time
	Action    Action
	Subject   string
	Principal string
	Outcome   string
	Reason    string
	RequestID string
}

type Action string

const (
	ActionAccountProvisioned Action = "account_provisioned"
	ActionProvisionRejected  Action = "provision_rejected"
	ActionAccountInitialized Action = "account_initialized"
	ActionFundsTransferred   Action = "funds_transferred"
	ActionFundsDeposited     Action = "funds_deposited"
	ActionOwnerRotated       Action = "owner_rotated"
	ActionProofRejected      Action = "proof_rejected"
)

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
)
