package rpc

import (
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"noctura/native/sale"
)

func parseBig(field, value string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s amount", field)
	}
	return parsed, nil
}

type purchaseParams struct {
	Buyer        string `json:"buyer"`
	Amount       string `json:"amount"`
	Instrument   string `json:"instrument,omitempty"`
	Tier         string `json:"tier,omitempty"`
	AutoCompound bool   `json:"autoCompound,omitempty"`
}

type claimParams struct {
	Caller       string `json:"caller,omitempty"`
	Owner        string `json:"owner"`
	Tier         string `json:"tier,omitempty"`
	AutoCompound bool   `json:"autoCompound,omitempty"`
}

type referrerParams struct {
	Buyer    string `json:"buyer"`
	Referrer string `json:"referrer"`
}

type adminParams struct {
	Caller     string `json:"caller"`
	Target     string `json:"target,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Active     bool   `json:"active,omitempty"`
	Enabled    bool   `json:"enabled,omitempty"`
	Blocked    bool   `json:"blocked,omitempty"`
	Instrument string `json:"instrument,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	MinCents   uint64 `json:"minCents,omitempty"`
	MaxCents   uint64 `json:"maxCents,omitempty"`
}

type allocationResult struct {
	Owner               string `json:"owner"`
	TotalTokens         string `json:"totalTokens"`
	ReferralBonusTokens string `json:"referralBonusTokens"`
	TotalSpentCents     uint64 `json:"totalSpentCents"`
	PurchaseCount       uint64 `json:"purchaseCount"`
	FirstPurchaseTime   int64  `json:"firstPurchaseTime"`
	LastPurchaseTime    int64  `json:"lastPurchaseTime"`
	Referrer            string `json:"referrer,omitempty"`
	Claimed             bool   `json:"claimed"`
}

func allocationToResult(alloc *sale.Allocation) allocationResult {
	result := allocationResult{
		Owner:               addrHex(alloc.Owner),
		TotalTokens:         alloc.TotalTokens.String(),
		ReferralBonusTokens: alloc.ReferralBonusTokens.String(),
		TotalSpentCents:     alloc.TotalSpentCents,
		PurchaseCount:       alloc.PurchaseCount,
		FirstPurchaseTime:   alloc.FirstPurchaseTime,
		LastPurchaseTime:    alloc.LastPurchaseTime,
		Claimed:             alloc.Claimed,
	}
	if alloc.HasReferrer() {
		result.Referrer = addrHex(alloc.Referrer)
	}
	return result
}

type saleStatusResult struct {
	Stage                uint8  `json:"stage"`
	StagePriceUSD4dp     uint64 `json:"stagePriceUsd4dp"`
	StageTokensSold      string `json:"stageTokensSold"`
	TokensSold           string `json:"tokensSold"`
	CrossChainTokensSold string `json:"crossChainTokensSold"`
	TotalUSDRaisedCents  uint64 `json:"totalUsdRaisedCents"`
	TotalReferralBonuses string `json:"totalReferralBonuses"`
	PresaleStartTime     int64  `json:"presaleStartTime"`
	TGETimestamp         int64  `json:"tgeTimestamp"`
	PresaleActive        bool   `json:"presaleActive"`
	MinPurchaseCents     uint64 `json:"minPurchaseCents"`
	MaxPurchaseCents     uint64 `json:"maxPurchaseCents"`
}

func (s *Server) handleSale(w http.ResponseWriter, req *RPCRequest) {
	switch req.Method {
	case "sale_status":
		global, err := s.sale.Global()
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		price, _ := sale.StagePrice(global.Stage)
		writeResult(w, req.ID, saleStatusResult{
			Stage:                global.Stage,
			StagePriceUSD4dp:     price,
			StageTokensSold:      global.StageTokensSold.String(),
			TokensSold:           global.TokensSold.String(),
			CrossChainTokensSold: global.CrossChainTokensSold.String(),
			TotalUSDRaisedCents:  global.TotalUSDRaised,
			TotalReferralBonuses: global.TotalReferralBonuses.String(),
			PresaleStartTime:     global.PresaleStartTime,
			TGETimestamp:         global.TGETimestamp,
			PresaleActive:        global.PresaleActive,
			MinPurchaseCents:     global.MinPurchaseCents(),
			MaxPurchaseCents:     global.MaxPurchaseCents(),
		})

	case "sale_allocation":
		var params claimParams
		if err := parseParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		owner, err := parseAddr("owner", params.Owner)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		alloc, err := s.sale.AllocationOf(owner)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, allocationToResult(alloc))

	case "sale_purchaseSOL", "sale_purchaseStable", "sale_purchaseAndVestSOL", "sale_purchaseAndVestStable":
		s.handleSalePurchase(w, req)

	case "sale_claim":
		var params claimParams
		if err := parseParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		owner, err := parseAddr("owner", params.Owner)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		amount, err := s.sale.Claim(owner)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]string{"claimed": amount.String()})

	case "sale_adminClaimFor":
		var params claimParams
		if err := parseParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		caller, err := parseAddr("caller", params.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		owner, err := parseAddr("owner", params.Owner)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		amount, err := s.sale.AdminClaimFor(caller, owner)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]string{"claimed": amount.String()})

	case "sale_claimAndStake":
		var params claimParams
		if err := parseParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		owner, err := parseAddr("owner", params.Owner)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		tier, err := parseTier(params.Tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		stake, err := s.sale.ClaimAndStake(owner, tier, params.AutoCompound)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, stakeToResult(stake))

	case "sale_registerReferrer":
		var params referrerParams
		if err := parseParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		buyer, err := parseAddr("buyer", params.Buyer)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		referrer, err := parseAddr("referrer", params.Referrer)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		if err := s.sale.RegisterReferrer(buyer, referrer); err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]bool{"registered": true})

	default:
		s.handleSaleAdmin(w, req)
	}
}

func (s *Server) handleSalePurchase(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseAddr("buyer", params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseBig("payment", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	switch req.Method {
	case "sale_purchaseSOL":
		alloc, err := s.sale.PurchaseWithSOL(buyer, amount)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, allocationToResult(alloc))
	case "sale_purchaseStable":
		alloc, err := s.sale.PurchaseWithStable(buyer, strings.ToUpper(params.Instrument), amount)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, allocationToResult(alloc))
	case "sale_purchaseAndVestSOL":
		tier, err := parseTier(params.Tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		stake, err := s.sale.PurchaseAndVestStakeSOL(buyer, amount, tier, params.AutoCompound)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, stakeToResult(stake))
	case "sale_purchaseAndVestStable":
		tier, err := parseTier(params.Tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		stake, err := s.sale.PurchaseAndVestStakeStable(buyer, strings.ToUpper(params.Instrument), amount, tier, params.AutoCompound)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, stakeToResult(stake))
	}
}

func (s *Server) handleSaleAdmin(w http.ResponseWriter, req *RPCRequest) {
	var params adminParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddr("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	target := [20]byte{}
	if strings.TrimSpace(params.Target) != "" {
		target, err = parseAddr("target", params.Target)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
	}

	switch req.Method {
	case "sale_setActive":
		err = s.sale.SetPresaleActive(caller, params.Active)
	case "sale_setTGE":
		err = s.sale.SetTGETimestamp(caller, params.Timestamp)
	case "sale_setStart":
		err = s.sale.SetPresaleStartTime(caller, params.Timestamp)
	case "sale_setLimits":
		err = s.sale.SetPurchaseLimits(caller, params.MinCents, params.MaxCents)
	case "sale_setTreasury":
		err = s.sale.SetTreasury(caller, target)
	case "sale_setCoordinator":
		err = s.sale.SetCoordinator(caller, target)
	case "sale_setStablecoin":
		err = s.sale.SetStablecoinEnabled(caller, strings.ToUpper(params.Instrument), params.Enabled)
	case "sale_setBlocked":
		err = s.sale.SetAddressBlocked(caller, target, params.Blocked)
	case "sale_grant":
		var amount *big.Int
		amount, err = parseBig("grant", params.Amount)
		if err == nil {
			err = s.sale.AdminGrantAllocation(caller, target, amount)
		}
	case "sale_withdraw":
		var amount *big.Int
		amount, err = parseBig("withdraw", params.Amount)
		if err == nil {
			err = s.sale.AdminWithdraw(caller, target, amount)
		}
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method "+req.Method, nil)
		return
	}
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}
