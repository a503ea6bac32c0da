package handler

import "starbeam/internal/account/models"

type AccountResponse struct {
	Address      string  `json:"address"`
	State        string  `json:"state"`
	Identity     *uint64 `json:"identity,omitempty"`
	Owner        string  `json:"owner,omitempty"`
	HasSignerKey bool    `json:"has_signer_key"`
	Nonce        uint64  `json:"nonce"`
	Balance      string  `json:"balance"`
}

type IdentityResponse struct {
	Address  string `json:"address"`
	Identity uint64 `json:"identity"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// OperationResponse acknowledges a state-changing call.
type OperationResponse struct {
	Address string `json:"address"`
	Status  string `json:"status"`
}

func toAccountResponse(snap *models.Snapshot) AccountResponse {
	resp := AccountResponse{
		Address:      snap.Address.String(),
		State:        string(snap.State),
		Owner:        snap.Owner.String(),
		HasSignerKey: snap.HasSignerKey,
		Nonce:        snap.Nonce,
		Balance:      snap.Balance.Dec(),
	}
	if snap.BoundIdentity != nil {
		v := uint64(*snap.BoundIdentity)
		resp.Identity = &v
	}
	return resp
}
