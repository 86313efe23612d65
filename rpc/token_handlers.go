package rpc

import (
	"errors"
	"net/http"

	"github.com/rokso/pf-auctions/native/token"
)

const (
	codeTokenInvalidParams = -32041
	codeTokenNotFound      = -32042
	codeTokenForbidden     = -32043
	codeTokenConflict      = -32044
)

type tokenRegisterParams struct {
	Caller        string `json:"caller"`
	Asset         string `json:"asset"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	MintAuthority string `json:"mintAuthority,omitempty"`
}

type tokenMintParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenApproveParams struct {
	Asset   string `json:"asset"`
	Holder  string `json:"holder"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type tokenBalanceParams struct {
	Asset  string `json:"asset"`
	Holder string `json:"holder"`
}

type balanceResult struct {
	Asset   string `json:"asset"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}

func writeTokenError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, token.ErrUnknownAsset):
		writeError(w, http.StatusNotFound, id, codeTokenNotFound, err.Error(), nil)
	case errors.Is(err, token.ErrNotMintAuthority):
		writeError(w, http.StatusForbidden, id, codeTokenForbidden, err.Error(), nil)
	case errors.Is(err, token.ErrAssetExists),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		writeError(w, http.StatusConflict, id, codeTokenConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) handleTokenRegister(w http.ResponseWriter, req *RPCRequest) {
	var params tokenRegisterParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress(params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	meta := token.Metadata{Symbol: params.Symbol, Decimals: params.Decimals}
	if params.MintAuthority != "" {
		authority, err := parseAddress(params.MintAuthority)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
			return
		}
		meta.MintAuthority = authority
	}
	if err := s.node.RegisterAsset(asset, meta); err != nil {
		writeTokenError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"registered": true})
}

func (s *Server) handleTokenMint(w http.ResponseWriter, req *RPCRequest) {
	var params tokenMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress(params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.MintAsset(caller, asset, to, amount); err != nil {
		writeTokenError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"minted": true})
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, req *RPCRequest) {
	var params tokenApproveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress(params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	holder, err := parseAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.ApproveAsset(asset, holder, spender, amount); err != nil {
		writeTokenError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"approved": true})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, req *RPCRequest) {
	var params tokenBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress(params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	holder, err := parseAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeTokenInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.AssetBalance(asset, holder)
	if err != nil {
		writeTokenError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{
		Asset:   formatAddress(asset),
		Holder:  formatAddress(holder),
		Balance: balance.String(),
	})
}
