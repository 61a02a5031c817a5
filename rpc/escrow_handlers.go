package rpc

import (
	"encoding/hex"
	"net/http"

	"paymint/core/types"
	"paymint/native/escrow"
)

type escrowInitializeParams struct {
	Buyer         string `json:"buyer"`
	Creator       string `json:"creator"`
	ContentID     string `json:"contentId"`
	Price         uint64 `json:"price"`
	PaymentToken  string `json:"paymentToken,omitempty"`
	Disambiguator uint64 `json:"disambiguator"`
}

type escrowSettleParams struct {
	Purchase      string `json:"purchase"`
	Caller        string `json:"caller"`
	PaymentAmount uint64 `json:"paymentAmount"`
	MintState     string `json:"mintState"`
	Split         string `json:"split"`
}

type escrowCancelParams struct {
	Purchase string `json:"purchase"`
	Caller   string `json:"caller"`
}

type escrowGetParams struct {
	Purchase      string `json:"purchase,omitempty"`
	Buyer         string `json:"buyer,omitempty"`
	ContentID     string `json:"contentId,omitempty"`
	Disambiguator uint64 `json:"disambiguator,omitempty"`
}

type purchaseJSON struct {
	Address       string `json:"address"`
	Buyer         string `json:"buyer"`
	Creator       string `json:"creator"`
	ContentID     string `json:"contentId"`
	Price         uint64 `json:"price"`
	PaymentToken  string `json:"paymentToken,omitempty"`
	PaymentAmount uint64 `json:"paymentAmount"`
	Credential    string `json:"credential,omitempty"`
	CreatedAt     uint64 `json:"createdAt"`
	Disambiguator uint64 `json:"disambiguator"`
	Status        string `json:"status"`
}

func purchaseToJSON(r *escrow.PurchaseRecord) *purchaseJSON {
	out := &purchaseJSON{
		Address:       r.Address.Hex(),
		Buyer:         r.Buyer.Hex(),
		Creator:       r.Creator.Hex(),
		ContentID:     "0x" + hex.EncodeToString(r.ContentID[:]),
		Price:         r.Price,
		PaymentToken:  r.PaymentToken,
		PaymentAmount: r.PaymentAmount,
		CreatedAt:     r.CreatedAt,
		Disambiguator: r.Disambiguator,
		Status:        r.Status.String(),
	}
	if !r.Credential.IsZero() {
		out.Credential = r.Credential.Hex()
	}
	return out
}

func (s *Server) handleEscrowInitialize(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params escrowInitializeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	buyer, err := types.ParseAddress(params.Buyer)
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
	record, err := s.node.InitializePurchase(buyer, creator, contentID, params.Price, params.PaymentToken, params.Disambiguator)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, purchaseToJSON(record))
}

func (s *Server) handleEscrowSettle(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params escrowSettleParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	purchase, err := types.ParseAddress(params.Purchase)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := types.ParseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	mintState, err := types.ParseAddress(params.MintState)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	split, err := types.ParseAddress(params.Split)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.SettlePurchase(purchase, caller, params.PaymentAmount, mintState, split)
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, purchaseToJSON(record))
}

func (s *Server) handleEscrowCancel(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params escrowCancelParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	purchase, err := types.ParseAddress(params.Purchase)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := types.ParseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.CancelPurchase(purchase, caller); err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "cancelled"})
}

func (s *Server) handleEscrowGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params escrowGetParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	var (
		record *escrow.PurchaseRecord
		ok     bool
		err    error
	)
	if params.Purchase != "" {
		addr, parseErr := types.ParseAddress(params.Purchase)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", parseErr.Error())
			return
		}
		record, ok, err = s.node.PurchaseGet(addr)
	} else {
		buyer, parseErr := types.ParseAddress(params.Buyer)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", parseErr.Error())
			return
		}
		contentID, parseErr := types.ParseContentID(params.ContentID)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", parseErr.Error())
			return
		}
		record, ok, err = s.node.PurchaseLookup(buyer, contentID, params.Disambiguator)
	}
	if err != nil {
		writeNamedError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "purchase_not_found", nil)
		return
	}
	writeResult(w, req.ID, purchaseToJSON(record))
}
