package rpc

import (
	"net/http"

	"noctura/native/staking"
)

type stakeParams struct {
	Owner        string `json:"owner"`
	Amount       string `json:"amount,omitempty"`
	Tier         string `json:"tier,omitempty"`
	AutoCompound bool   `json:"autoCompound,omitempty"`
	Vesting      bool   `json:"vesting,omitempty"`
	StakeID      uint64 `json:"stakeId,omitempty"`
}

type stakeResult struct {
	ID                    uint64 `json:"id"`
	Owner                 string `json:"owner"`
	Amount                string `json:"amount"`
	Tier                  string `json:"tier"`
	StartTime             int64  `json:"startTime"`
	LockDays              uint64 `json:"lockDays"`
	LastRewardCalculation int64  `json:"lastRewardCalculation"`
	PendingRewards        string `json:"pendingRewards"`
	Active                bool   `json:"active"`
	AutoCompound          bool   `json:"autoCompound"`
	CooldownStart         int64  `json:"cooldownStart,omitempty"`
	IsVesting             bool   `json:"isVesting"`
	TotalAdded            string `json:"totalAdded"`
}

func stakeToResult(s *staking.Stake) stakeResult {
	return stakeResult{
		ID:                    s.ID,
		Owner:                 addrHex(s.Owner),
		Amount:                s.Amount.String(),
		Tier:                  s.Tier.String(),
		StartTime:             s.StartTime,
		LockDays:              s.LockDays,
		LastRewardCalculation: s.LastRewardCalculation,
		PendingRewards:        s.PendingRewards.String(),
		Active:                s.Active,
		AutoCompound:          s.AutoCompound,
		CooldownStart:         s.CooldownStart,
		IsVesting:             s.IsVesting,
		TotalAdded:            s.TotalAdded.String(),
	}
}

type poolResult struct {
	TotalStaked             string `json:"totalStaked"`
	TotalStakedTierA        string `json:"totalStakedTierA"`
	TotalStakers            uint64 `json:"totalStakers"`
	TotalRewardsDistributed string `json:"totalRewardsDistributed"`
	MinStakeAmount          string `json:"minStakeAmount"`
}

func (s *Server) stakeLocator(params stakeParams) (staking.Locator, error) {
	loc := staking.Locator{Vesting: params.Vesting, ID: params.StakeID}
	if params.Vesting {
		tier, err := parseTier(params.Tier)
		if err != nil {
			return staking.Locator{}, err
		}
		loc.Tier = tier
	}
	return loc, nil
}

func (s *Server) handleStaking(w http.ResponseWriter, req *RPCRequest) {
	if req.Method == "stake_pool" {
		pool, err := s.staking.Pool()
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, poolResult{
			TotalStaked:             pool.TotalStaked.String(),
			TotalStakedTierA:        pool.TotalStakedTierA.String(),
			TotalStakers:            pool.TotalStakers,
			TotalRewardsDistributed: pool.TotalRewardsDistributed.String(),
			MinStakeAmount:          pool.MinStakeAmount.String(),
		})
		return
	}

	var params stakeParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddr("owner", params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	switch req.Method {
	case "stake_create":
		amount, err := parseBig("stake", params.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		tier, err := parseTier(params.Tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		stake, err := s.staking.Stake(owner, amount, tier, params.AutoCompound)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, stakeToResult(stake))

	case "stake_get":
		loc, err := s.stakeLocator(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		stake, err := s.staking.Get(owner, loc)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, stakeToResult(stake))

	case "stake_harvest":
		loc, err := s.stakeLocator(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		reward, err := s.staking.Harvest(owner, loc)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]string{"reward": reward.String()})

	case "stake_toggleAutoCompound":
		loc, err := s.stakeLocator(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		enabled, err := s.staking.ToggleAutoCompound(owner, loc)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]bool{"autoCompound": enabled})

	case "stake_initiateUnstake":
		loc, err := s.stakeLocator(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		if err := s.staking.InitiateUnstake(owner, loc); err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]bool{"cooldownStarted": true})

	case "stake_finalizeUnstake":
		loc, err := s.stakeLocator(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		payout, err := s.staking.FinalizeUnstake(owner, loc)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]string{"payout": payout.String()})

	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method "+req.Method, nil)
	}
}
