package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paymint/core/types"
	"paymint/native/accessmint"
	"paymint/native/distribution"
	"paymint/native/escrow"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGatewayError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, escrow.ErrPurchaseNotFound),
		errors.Is(err, distribution.ErrSplitNotFound),
		errors.Is(err, accessmint.ErrMintNotFound):
		status = http.StatusNotFound
	case errors.Is(err, escrow.ErrUnauthorized),
		errors.Is(err, distribution.ErrUnauthorized),
		errors.Is(err, accessmint.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, escrow.ErrInvalidStatus),
		errors.Is(err, escrow.ErrDuplicatePurchase),
		errors.Is(err, distribution.ErrSplitMismatch),
		errors.Is(err, accessmint.ErrAlreadyMinted),
		errors.Is(err, accessmint.ErrMintMismatch):
		status = http.StatusConflict
	case errors.Is(err, escrow.ErrInvalidPrice),
		errors.Is(err, escrow.ErrInvalidAmount),
		errors.Is(err, escrow.ErrInsufficientFunds),
		errors.Is(err, escrow.ErrUnknownToken),
		errors.Is(err, distribution.ErrZeroAmount),
		errors.Is(err, distribution.ErrInvalidPlatformFee),
		errors.Is(err, distribution.ErrInvalidShareDistribution),
		errors.Is(err, distribution.ErrTooManyCollaborators):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

type createIntentRequest struct {
	Buyer                string `json:"buyer"`
	Creator              string `json:"creator"`
	ContentID            string `json:"contentId"`
	Price                uint64 `json:"price"`
	PaymentToken         string `json:"paymentToken,omitempty"`
	Disambiguator        uint64 `json:"disambiguator"`
	CreatorDisambiguator uint64 `json:"creatorDisambiguator"`
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	buyer, err := types.ParseAddress(req.Buyer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	creator, err := types.ParseAddress(req.Creator)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	contentID, err := types.ParseContentID(req.ContentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	intent, err := s.builder.Build(buyer, creator, contentID, req.Price, req.PaymentToken, req.Disambiguator, req.CreatorDisambiguator)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	s.intents.Put(intent)
	writeJSON(w, http.StatusCreated, intent)
}

func (s *Server) handleGetIntent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	intent, ok := s.intents.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "intent not found"})
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

type purchaseReceipt struct {
	Address       string `json:"address"`
	Buyer         string `json:"buyer"`
	Creator       string `json:"creator"`
	ContentID     string `json:"contentId"`
	Price         uint64 `json:"price"`
	PaymentToken  string `json:"paymentToken,omitempty"`
	PaymentAmount uint64 `json:"paymentAmount"`
	Credential    string `json:"credential,omitempty"`
	Status        string `json:"status"`
	CreatedAt     uint64 `json:"createdAt"`
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	addr, err := types.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	record, ok, err := s.node.PurchaseGet(addr)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "purchase not found"})
		return
	}
	receipt := purchaseReceipt{
		Address:       record.Address.Hex(),
		Buyer:         record.Buyer.Hex(),
		Creator:       record.Creator.Hex(),
		ContentID:     types.ContentIDHex(record.ContentID),
		Price:         record.Price,
		PaymentToken:  record.PaymentToken,
		PaymentAmount: record.PaymentAmount,
		Status:        record.Status.String(),
		CreatedAt:     record.CreatedAt,
	}
	if !record.Credential.IsZero() {
		receipt.Credential = record.Credential.Hex()
	}
	writeJSON(w, http.StatusOK, receipt)
}

type splitView struct {
	Address          string             `json:"address"`
	Creator          string             `json:"creator"`
	PlatformTreasury string             `json:"platformTreasury"`
	PlatformFeeBps   uint16             `json:"platformFeeBps"`
	Collaborators    []collaboratorView `json:"collaborators"`
	ContentID        string             `json:"contentId"`
}

type collaboratorView struct {
	Account  string `json:"account"`
	ShareBps uint16 `json:"shareBps"`
}

func (s *Server) handleGetSplit(w http.ResponseWriter, r *http.Request) {
	addr, err := types.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	cfg, ok, err := s.node.SplitGet(addr)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "split not found"})
		return
	}
	collaborators := make([]collaboratorView, len(cfg.Collaborators))
	for i, collab := range cfg.Collaborators {
		collaborators[i] = collaboratorView{Account: collab.Account.Hex(), ShareBps: collab.ShareBps}
	}
	writeJSON(w, http.StatusOK, splitView{
		Address:          cfg.Address.Hex(),
		Creator:          cfg.Creator.Hex(),
		PlatformTreasury: cfg.PlatformTreasury.Hex(),
		PlatformFeeBps:   cfg.PlatformFeeBps,
		Collaborators:    collaborators,
		ContentID:        types.ContentIDHex(cfg.ContentID),
	})
}

type previewView struct {
	Amount        uint64   `json:"amount"`
	Platform      uint64   `json:"platform"`
	Collaborators []uint64 `json:"collaborators"`
	Creator       uint64   `json:"creator"`
}

func (s *Server) handleSplitPreview(w http.ResponseWriter, r *http.Request) {
	addr, err := types.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "amount query parameter required"})
		return
	}
	cfg, ok, err := s.node.SplitGet(addr)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "split not found"})
		return
	}
	payout, err := distribution.ComputeCuts(amount, cfg)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewView{
		Amount:        amount,
		Platform:      payout.Platform,
		Collaborators: payout.Collaborators,
		Creator:       payout.Creator,
	})
}

func (s *Server) handleCredentialBalance(w http.ResponseWriter, r *http.Request) {
	asset, err := types.ParseAddress(chi.URLParam(r, "asset"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	holder, err := types.ParseAddress(chi.URLParam(r, "holder"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	balance, err := s.node.CredentialBalance(asset, holder)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":   asset.Hex(),
		"holder":  holder.Hex(),
		"balance": balance,
		"granted": balance > 0,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := types.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	token := r.URL.Query().Get("token")
	balance, err := s.node.Balance(account, token)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account.Hex(),
		"token":   token,
		"balance": balance.String(),
	})
}
