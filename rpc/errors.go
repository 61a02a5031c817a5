package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"paymint/native/accessmint"
	"paymint/native/distribution"
	"paymint/native/escrow"
)

// Stable error codes for the named settlement error kinds. Callers
// dispatch on these instead of parsing messages.
const (
	codeDuplicatePurchase = -32031
	codeInvalidStatus     = -32032
	codeInsufficientFunds = -32033
	codeInvalidAmount     = -32034
	codeForbidden         = -32035
	codeNotFound          = -32036

	codeInvalidPlatformFee       = -32041
	codeInvalidShareDistribution = -32042
	codeTooManyCollaborators     = -32043
	codeZeroAmount               = -32044
	codeSplitMismatch            = -32045

	codeAlreadyMinted = -32051
	codeMintMismatch  = -32052
)

type errorMapping struct {
	sentinel   error
	httpStatus int
	code       int
	message    string
}

var errorMappings = []errorMapping{
	{escrow.ErrDuplicatePurchase, http.StatusConflict, codeDuplicatePurchase, "duplicate_purchase"},
	{escrow.ErrInvalidStatus, http.StatusConflict, codeInvalidStatus, "invalid_status"},
	{escrow.ErrInsufficientFunds, http.StatusBadRequest, codeInsufficientFunds, "insufficient_funds"},
	{escrow.ErrInvalidAmount, http.StatusBadRequest, codeInvalidAmount, "invalid_amount"},
	{escrow.ErrInvalidPrice, http.StatusBadRequest, codeInvalidAmount, "invalid_price"},
	{escrow.ErrUnknownToken, http.StatusBadRequest, codeInvalidParams, "unknown_token"},
	{escrow.ErrUnauthorized, http.StatusForbidden, codeForbidden, "unauthorized"},
	{escrow.ErrPurchaseNotFound, http.StatusNotFound, codeNotFound, "purchase_not_found"},

	{distribution.ErrInvalidPlatformFee, http.StatusBadRequest, codeInvalidPlatformFee, "invalid_platform_fee"},
	{distribution.ErrInvalidShareDistribution, http.StatusBadRequest, codeInvalidShareDistribution, "invalid_share_distribution"},
	{distribution.ErrTooManyCollaborators, http.StatusBadRequest, codeTooManyCollaborators, "too_many_collaborators"},
	{distribution.ErrZeroAmount, http.StatusBadRequest, codeZeroAmount, "zero_amount"},
	{distribution.ErrSplitMismatch, http.StatusConflict, codeSplitMismatch, "split_mismatch"},
	{distribution.ErrDuplicateSplit, http.StatusConflict, codeDuplicatePurchase, "duplicate_split"},
	{distribution.ErrSplitNotFound, http.StatusNotFound, codeNotFound, "split_not_found"},
	{distribution.ErrUnauthorized, http.StatusForbidden, codeForbidden, "unauthorized"},

	{accessmint.ErrAlreadyMinted, http.StatusConflict, codeAlreadyMinted, "already_minted"},
	{accessmint.ErrMintMismatch, http.StatusConflict, codeMintMismatch, "mint_mismatch"},
	{accessmint.ErrDuplicateMint, http.StatusConflict, codeDuplicatePurchase, "duplicate_mint"},
	{accessmint.ErrMintNotFound, http.StatusNotFound, codeNotFound, "mint_state_not_found"},
	{accessmint.ErrUnauthorized, http.StatusForbidden, codeForbidden, "unauthorized"},
}

// writeNamedError maps a settlement error onto its stable code. Unmapped
// errors surface as a generic server error.
func writeNamedError(w http.ResponseWriter, id json.RawMessage, err error) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.sentinel) {
			writeError(w, mapping.httpStatus, id, mapping.code, mapping.message, err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, id, codeServerError, "server_error", err.Error())
}
