package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rokso/pf-auctions/native/auction"
)

const (
	codeAuctionInvalidParams = -32031
	codeAuctionNotFound      = -32032
	codeAuctionForbidden     = -32033
	codeAuctionConflict      = -32034
	codeAuctionTransfer      = -32035
)

type lotParam struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type auctionCreateParams struct {
	Creator      string     `json:"creator"`
	Ceiling      string     `json:"ceiling"`
	Floor        string     `json:"floor"`
	CollectionID uint64     `json:"collectionId,omitempty"`
	PaymentAsset string     `json:"paymentAsset"`
	Payee        string     `json:"payee"`
	EndMarker    uint64     `json:"endMarker"`
	Lots         []lotParam `json:"lots"`
}

type auctionIDParams struct {
	ID uint64 `json:"id"`
}

type auctionActorParams struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
}

type auctionBidParams struct {
	ID     uint64 `json:"id"`
	Bidder string `json:"bidder"`
}

type collectionCreateParams struct {
	Owner string `json:"owner"`
}

type collectionTransferParams struct {
	ID       uint64 `json:"id"`
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type collectionIndexParams struct {
	ID    uint64 `json:"id"`
	Index uint64 `json:"index"`
}

type auctioneerParams struct {
	Auctioneer string `json:"auctioneer"`
}

type auctioneerIndexParams struct {
	Auctioneer string `json:"auctioneer"`
	Index      uint64 `json:"index"`
}

type idResult struct {
	ID uint64 `json:"id"`
}

type priceResult struct {
	Price string `json:"price"`
}

type countResult struct {
	Count uint64 `json:"count"`
}

type lengthResult struct {
	Length uint64 `json:"length"`
}

type heightResult struct {
	Height uint64 `json:"height"`
}

type lotJSON struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type auctionJSON struct {
	ID            uint64    `json:"id"`
	Auctioneer    string    `json:"auctioneer"`
	Ceiling       string    `json:"ceiling"`
	Floor         string    `json:"floor"`
	CollectionID  uint64    `json:"collectionId,omitempty"`
	PaymentAsset  string    `json:"paymentAsset"`
	Payee         string    `json:"payee"`
	StartMarker   uint64    `json:"startMarker"`
	EndMarker     uint64    `json:"endMarker"`
	Lots          []lotJSON `json:"lots"`
	Status        string    `json:"status"`
	Stopped       bool      `json:"stopped"`
	Winner        *string   `json:"winner,omitempty"`
	WinningMarker *uint64   `json:"winningMarker,omitempty"`
	WinningPrice  *string   `json:"winningPrice,omitempty"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	if !common.IsHexAddress(value) {
		return [20]byte{}, fmt.Errorf("invalid address %q", value)
	}
	return [20]byte(common.HexToAddress(value)), nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func formatAddress(addr [20]byte) string {
	return common.Address(addr).Hex()
}

func auctionToJSON(a *auction.Auction) *auctionJSON {
	out := &auctionJSON{
		ID:           a.ID,
		Auctioneer:   formatAddress(a.Auctioneer),
		Ceiling:      a.Ceiling.String(),
		Floor:        a.Floor.String(),
		CollectionID: a.CollectionID,
		PaymentAsset: formatAddress(a.PaymentAsset),
		Payee:        formatAddress(a.Payee),
		StartMarker:  a.StartMarker,
		EndMarker:    a.EndMarker,
		Status:       a.Status().String(),
		Stopped:      a.Stopped,
	}
	for _, lot := range a.Lots {
		out.Lots = append(out.Lots, lotJSON{Asset: formatAddress(lot.Asset), Amount: lot.Amount.String()})
	}
	if a.Status() == auction.StatusWon {
		winner := formatAddress(a.Winner)
		marker := a.WinningMarker
		price := a.WinningPrice.String()
		out.Winner = &winner
		out.WinningMarker = &marker
		out.WinningPrice = &price
	}
	return out
}

// writeAuctionError maps engine error kinds onto JSON-RPC codes.
func writeAuctionError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, auction.ErrNoSuchAuction):
		writeError(w, http.StatusNotFound, id, codeAuctionNotFound, err.Error(), nil)
	case errors.Is(err, auction.ErrAlreadySettled):
		writeError(w, http.StatusConflict, id, codeAuctionConflict, err.Error(), nil)
	case errors.Is(err, auction.ErrNotAuthorized), errors.Is(err, auction.ErrNotCollectionOwner):
		writeError(w, http.StatusForbidden, id, codeAuctionForbidden, err.Error(), nil)
	case errors.Is(err, auction.ErrInvalidConfig), errors.Is(err, auction.ErrIndexOutOfRange),
		errors.Is(err, auction.ErrNoSuchAsset), errors.Is(err, auction.ErrZeroAddress):
		writeError(w, http.StatusBadRequest, id, codeAuctionInvalidParams, err.Error(), nil)
	case errors.Is(err, auction.ErrInsufficientTransfer), errors.Is(err, auction.ErrReentrantCall):
		writeError(w, http.StatusConflict, id, codeAuctionTransfer, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) handleAuctionCreate(w http.ResponseWriter, req *RPCRequest) {
	var params auctionCreateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	creator, err := parseAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	cfg, err := configFromParams(&params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.CreateAuction(cfg, creator)
	if err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: id})
}

func configFromParams(params *auctionCreateParams) (*auction.Config, error) {
	ceiling, err := parseAmount(params.Ceiling)
	if err != nil {
		return nil, fmt.Errorf("ceiling: %w", err)
	}
	floor, err := parseAmount(params.Floor)
	if err != nil {
		return nil, fmt.Errorf("floor: %w", err)
	}
	paymentAsset, err := parseAddress(params.PaymentAsset)
	if err != nil {
		return nil, fmt.Errorf("paymentAsset: %w", err)
	}
	payee, err := parseAddress(params.Payee)
	if err != nil {
		return nil, fmt.Errorf("payee: %w", err)
	}
	cfg := &auction.Config{
		Ceiling:      ceiling,
		Floor:        floor,
		CollectionID: params.CollectionID,
		PaymentAsset: paymentAsset,
		Payee:        payee,
		EndMarker:    params.EndMarker,
	}
	for i, lot := range params.Lots {
		asset, err := parseAddress(lot.Asset)
		if err != nil {
			return nil, fmt.Errorf("lot %d: %w", i, err)
		}
		amount, err := parseAmount(lot.Amount)
		if err != nil {
			return nil, fmt.Errorf("lot %d: %w", i, err)
		}
		cfg.Lots = append(cfg.Lots, auction.Lot{Asset: asset, Amount: amount})
	}
	return cfg, nil
}

func (s *Server) handleAuctionBid(w http.ResponseWriter, req *RPCRequest) {
	var params auctionBidParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	bidder, err := parseAddress(params.Bidder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	price, err := s.node.Bid(params.ID, bidder)
	if err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, priceResult{Price: price.String()})
}

func (s *Server) handleAuctionStop(w http.ResponseWriter, req *RPCRequest) {
	var params auctionActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.StopAuction(params.ID, caller); err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"stopped": true})
}

func (s *Server) handleAuctionGet(w http.ResponseWriter, req *RPCRequest) {
	var params auctionIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, err := s.node.GetAuction(params.ID)
	if err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, auctionToJSON(record))
}

func (s *Server) handleGetCurrentPrice(w http.ResponseWriter, req *RPCRequest) {
	var params auctionIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := s.node.GetCurrentPrice(params.ID)
	if err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, priceResult{Price: price.String()})
}

func (s *Server) handleCollectionCreate(w http.ResponseWriter, req *RPCRequest) {
	var params collectionCreateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.CreateCollection(owner)
	if err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: id})
}

func (s *Server) handleCollectionTransfer(w http.ResponseWriter, req *RPCRequest) {
	var params collectionTransferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	newOwner, err := parseAddress(params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.TransferCollection(caller, newOwner, params.ID); err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"transferred": true})
}

func (s *Server) handleCollectionLength(w http.ResponseWriter, req *RPCRequest) {
	var params auctionIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, lengthResult{Length: s.node.CollectionLength(params.ID)})
}

func (s *Server) handleAuctionOfCollByIndex(w http.ResponseWriter, req *RPCRequest) {
	var params collectionIndexParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	auctionID, err := s.node.AuctionOfCollectionByIndex(params.ID, params.Index)
	if err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: auctionID})
}

func (s *Server) handleNeerGroupLength(w http.ResponseWriter, req *RPCRequest) {
	var params auctioneerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	auctioneer, err := parseAddress(params.Auctioneer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, lengthResult{Length: s.node.AuctioneerGroupLength(auctioneer)})
}

func (s *Server) handleAuctionOfNeerByIndex(w http.ResponseWriter, req *RPCRequest) {
	var params auctioneerIndexParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	auctioneer, err := parseAddress(params.Auctioneer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAuctionInvalidParams, err.Error(), nil)
		return
	}
	auctionID, err := s.node.AuctionOfAuctioneerByIndex(auctioneer, params.Index)
	if err != nil {
		writeAuctionError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: auctionID})
}
