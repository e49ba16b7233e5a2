package rpc

import (
	"net/http"
	"strings"

	"noctura/native/crosschain"
)

type crossChainParams struct {
	Caller       string `json:"caller,omitempty"`
	ETHAddress   string `json:"ethAddress"`
	ChainID      uint64 `json:"chainId"`
	USDCents     uint64 `json:"usdCents,omitempty"`
	Referrer     string `json:"referrer,omitempty"`
	Wallet       string `json:"wallet,omitempty"`
	Tier         string `json:"tier,omitempty"`
	AutoCompound bool   `json:"autoCompound,omitempty"`
}

type crossAllocationResult struct {
	ETHAddress          string `json:"ethAddress"`
	ChainID             uint64 `json:"chainId"`
	TotalTokens         string `json:"totalTokens"`
	ReferralBonusTokens string `json:"referralBonusTokens"`
	TotalSpentCents     uint64 `json:"totalSpentCents"`
	PurchaseCount       uint64 `json:"purchaseCount"`
	FirstPurchaseTime   int64  `json:"firstPurchaseTime"`
	LastPurchaseTime    int64  `json:"lastPurchaseTime"`
	ReferrerETH         string `json:"referrerEth,omitempty"`
	LinkedWallet        string `json:"linkedWallet,omitempty"`
	Claimed             bool   `json:"claimed"`
}

func crossAllocationToResult(entry *crosschain.Allocation) crossAllocationResult {
	result := crossAllocationResult{
		ETHAddress:          addrHex(entry.ETHAddress),
		ChainID:             entry.ChainID,
		TotalTokens:         entry.TotalTokens.String(),
		ReferralBonusTokens: entry.ReferralBonusTokens.String(),
		TotalSpentCents:     entry.TotalSpentCents,
		PurchaseCount:       entry.PurchaseCount,
		FirstPurchaseTime:   entry.FirstPurchaseTime,
		LastPurchaseTime:    entry.LastPurchaseTime,
		Claimed:             entry.Claimed,
	}
	if entry.ReferrerETH != ([20]byte{}) {
		result.ReferrerETH = addrHex(entry.ReferrerETH)
	}
	if entry.HasLinkedWallet() {
		result.LinkedWallet = addrHex(entry.LinkedWallet)
	}
	return result
}

func (s *Server) handleCrossChain(w http.ResponseWriter, req *RPCRequest) {
	var params crossChainParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	ethAddress, err := parseAddr("ethAddress", params.ETHAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	switch req.Method {
	case "xchain_allocation":
		entry, err := s.crosschain.AllocationOf(ethAddress, params.ChainID)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, crossAllocationToResult(entry))

	case "xchain_referral":
		record, err := s.crosschain.ReferralOf(ethAddress, params.ChainID)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]interface{}{
			"referrer":      addrHex(record.Referrer),
			"chainId":       record.ChainID,
			"totalBonus":    record.TotalBonus.String(),
			"referralCount": record.ReferralCount,
		})

	case "xchain_recordPurchase":
		caller, err := parseAddr("caller", params.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		referrer := [20]byte{}
		if strings.TrimSpace(params.Referrer) != "" {
			referrer, err = parseAddr("referrer", params.Referrer)
			if err != nil {
				writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
				return
			}
		}
		entry, err := s.crosschain.RecordPurchase(caller, ethAddress, params.ChainID, params.USDCents, referrer)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, crossAllocationToResult(entry))

	case "xchain_linkWallet":
		caller, err := parseAddr("caller", params.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		wallet, err := parseAddr("wallet", params.Wallet)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		if err := s.crosschain.LinkWallet(caller, ethAddress, params.ChainID, wallet); err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]bool{"linked": true})

	case "xchain_claim":
		caller, err := parseAddr("caller", params.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		amount, err := s.crosschain.Claim(caller, ethAddress, params.ChainID)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]string{"claimed": amount.String()})

	case "xchain_mintAndVestStake":
		caller, err := parseAddr("caller", params.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		wallet, err := parseAddr("wallet", params.Wallet)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		tier, err := parseTier(params.Tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		referrer := [20]byte{}
		if strings.TrimSpace(params.Referrer) != "" {
			referrer, err = parseAddr("referrer", params.Referrer)
			if err != nil {
				writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
				return
			}
		}
		stake, err := s.crosschain.MintAndVestStake(caller, ethAddress, params.ChainID, params.USDCents, wallet, tier, params.AutoCompound, referrer)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, stakeToResult(stake))

	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method "+req.Method, nil)
	}
}
