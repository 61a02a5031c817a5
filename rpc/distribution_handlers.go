package rpc

import (
	"encoding/hex"
	"net/http"

	"paymint/core/types"
	"paymint/native/distribution"
)

type collaboratorParams struct {
	Account  string `json:"account"`
	ShareBps uint16 `json:"shareBps"`
}

type splitInitializeParams struct {
	Creator          string               `json:"creator"`
	ContentID        string               `json:"contentId"`
	PlatformTreasury string               `json:"platformTreasury"`
	PlatformFeeBps   uint16               `json:"platformFeeBps"`
	Collaborators    []collaboratorParams `json:"collaborators,omitempty"`
	Disambiguator    uint64               `json:"disambiguator"`
}

type splitGetParams struct {
	Split string `json:"split"`
}

type splitPreviewParams struct {
	Split  string `json:"split"`
	Amount uint64 `json:"amount"`
}

type collaboratorJSON struct {
	Account  string `json:"account"`
	ShareBps uint16 `json:"shareBps"`
}

type splitJSON struct {
	Address           string             `json:"address"`
	Creator           string             `json:"creator"`
	PlatformTreasury  string             `json:"platformTreasury"`
	PlatformFeeBps    uint16             `json:"platformFeeBps"`
	Collaborators     []collaboratorJSON `json:"collaborators"`
	ContentID         string             `json:"contentId"`
	Disambiguator     uint64             `json:"disambiguator"`
	CreatedAt         uint64             `json:"createdAt"`
	LastDistributedAt uint64             `json:"lastDistributedAt,omitempty"`
}

type payoutJSON struct {
	Platform      uint64   `json:"platform"`
	Collaborators []uint64 `json:"collaborators"`
	Creator       uint64   `json:"creator"`
	Total         uint64   `json:"total"`
}

func splitToJSON(cfg *distribution.SplitConfig) *splitJSON {
	collaborators := make([]collaboratorJSON, len(cfg.Collaborators))
	for i, collab := range cfg.Collaborators {
		collaborators[i] = collaboratorJSON{Account: collab.Account.Hex(), ShareBps: collab.ShareBps}
	}
	return &splitJSON{
		Address:           cfg.Address.Hex(),
		Creator:           cfg.Creator.Hex(),
		PlatformTreasury:  cfg.PlatformTreasury.Hex(),
		PlatformFeeBps:    cfg.PlatformFeeBps,
		Collaborators:     collaborators,
		ContentID:         "0x" + hex.EncodeToString(cfg.ContentID[:]),
		Disambiguator:     cfg.Disambiguator,
		CreatedAt:         cfg.CreatedAt,
		LastDistributedAt: cfg.LastDistributedAt,
	}
}

func (s *Server) handleSplitInitialize(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params splitInitializeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	creator, err := types.ParseAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	treasury, err := types.ParseAddress(params.PlatformTreasury)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	contentID, err := types.ParseContentID(params.ContentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	collaborators := make([]distribution.Collaborator, len(params.Collaborators))
	for i, collab := range params.Collaborators {
		account, parseErr := types.ParseAddress(collab.Account)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", parseErr.Error())
			return
		}
		collaborators[i] = distribution.Collaborator{Account: account, ShareBps: collab.ShareBps}
	}
	cfg, err := s.node.InitializeSplit(creator, contentID, treasury, params.PlatformFeeBps, collaborators, params.Disambiguator)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, splitToJSON(cfg))
}

func (s *Server) handleSplitGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params splitGetParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := types.ParseAddress(params.Split)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	cfg, ok, err := s.node.SplitGet(addr)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "split_not_found", nil)
		return
	}
	writeResult(w, req.ID, splitToJSON(cfg))
}

// handleSplitPreview computes the exact cuts a distribution of the given
// amount would produce, without moving funds. Storefronts use this to
// render payout breakdowns.
func (s *Server) handleSplitPreview(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params splitPreviewParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := types.ParseAddress(params.Split)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	cfg, ok, err := s.node.SplitGet(addr)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "split_not_found", nil)
		return
	}
	payout, err := distribution.ComputeCuts(params.Amount, cfg)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &payoutJSON{
		Platform:      payout.Platform,
		Collaborators: payout.Collaborators,
		Creator:       payout.Creator,
		Total:         payout.Total(),
	})
}
