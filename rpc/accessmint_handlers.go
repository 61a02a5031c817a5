package rpc

import (
	"encoding/hex"
	"net/http"

	"paymint/core/types"
	"paymint/native/accessmint"
)

type mintInitializeParams struct {
	Creator       string `json:"creator"`
	ContentID     string `json:"contentId"`
	Disambiguator uint64 `json:"disambiguator"`
}

type mintAccessParams struct {
	MintState string `json:"mintState"`
	Creator   string `json:"creator"`
	ContentID string `json:"contentId"`
	Buyer     string `json:"buyer"`
	Payer     string `json:"payer"`
}

type mintStateParams struct {
	MintState string `json:"mintState"`
}

type credentialBalanceParams struct {
	Asset  string `json:"asset"`
	Holder string `json:"holder"`
}

type ledgerBalanceParams struct {
	Account string `json:"account"`
	Token   string `json:"token,omitempty"`
}

type mintStateJSON struct {
	Address         string `json:"address"`
	Creator         string `json:"creator"`
	ContentID       string `json:"contentId"`
	CredentialAsset string `json:"credentialAsset"`
	MintAuthority   string `json:"mintAuthority"`
	Disambiguator   uint64 `json:"disambiguator"`
	TotalMinted     uint64 `json:"totalMinted"`
	CreatedAt       uint64 `json:"createdAt"`
}

func mintStateToJSON(state *accessmint.AccessMintState) *mintStateJSON {
	return &mintStateJSON{
		Address:         state.Address.Hex(),
		Creator:         state.Creator.Hex(),
		ContentID:       "0x" + hex.EncodeToString(state.ContentID[:]),
		CredentialAsset: state.CredentialAsset.Hex(),
		MintAuthority:   state.MintAuthority.Hex(),
		Disambiguator:   state.Disambiguator,
		TotalMinted:     state.TotalMinted,
		CreatedAt:       state.CreatedAt,
	}
}

func (s *Server) handleMintInitialize(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params mintInitializeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	creator, err := types.ParseAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	contentID, err := types.ParseContentID(params.ContentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	state, err := s.node.InitializeMint(creator, contentID, params.Disambiguator)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, mintStateToJSON(state))
}

func (s *Server) handleMintAccess(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params mintAccessParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	mintState, err := types.ParseAddress(params.MintState)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	creator, err := types.ParseAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	contentID, err := types.ParseContentID(params.ContentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	buyer, err := types.ParseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	payer := buyer
	if params.Payer != "" {
		payer, err = types.ParseAddress(params.Payer)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
			return
		}
	}
	credential, err := s.node.MintAccess(mintState, creator, contentID, buyer, payer)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"credentialAsset": credential.Hex(), "holder": buyer.Hex()})
}

func (s *Server) handleMintState(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params mintStateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := types.ParseAddress(params.MintState)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	state, ok, err := s.node.MintStateGet(addr)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "mint_state_not_found", nil)
		return
	}
	writeResult(w, req.ID, mintStateToJSON(state))
}

func (s *Server) handleCredentialBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params credentialBalanceParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	asset, err := types.ParseAddress(params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	holder, err := types.ParseAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.node.CredentialBalance(asset, holder)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"asset":   asset.Hex(),
		"holder":  holder.Hex(),
		"balance": balance,
	})
}

func (s *Server) handleLedgerBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params ledgerBalanceParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	account, err := types.ParseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.node.Balance(account, params.Token)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"account": account.Hex(),
		"token":   params.Token,
		"balance": balance.String(),
	})
}
