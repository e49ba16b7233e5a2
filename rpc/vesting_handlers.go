package rpc

import "net/http"

type vestingParams struct {
	Caller string `json:"caller,omitempty"`
	Member string `json:"member"`
	Amount string `json:"amount,omitempty"`
}

func (s *Server) handleVesting(w http.ResponseWriter, req *RPCRequest) {
	var params vestingParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	member, err := parseAddr("member", params.Member)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	switch req.Method {
	case "vesting_create":
		caller, err := parseAddr("caller", params.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		amount, err := parseBig("allocation", params.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		schedule, err := s.vesting.Create(caller, member, amount)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]interface{}{
			"member":          addrHex(schedule.Member),
			"totalAllocation": schedule.TotalAllocation.String(),
			"cliffEnd":        schedule.CliffEnd,
		})

	case "vesting_claim":
		amount, err := s.vesting.Claim(member)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]string{"claimed": amount.String()})

	case "vesting_status":
		status, err := s.vesting.StatusOf(member)
		if err != nil {
			engineError(w, req.ID, err)
			return
		}
		writeResult(w, req.ID, map[string]interface{}{
			"totalAllocation": status.TotalAllocation.String(),
			"claimedAmount":   status.ClaimedAmount.String(),
			"claimable":       status.Claimable.String(),
			"cliffEnd":        status.CliffEnd,
			"secondsToCliff":  status.SecondsToCliff,
			"isActive":        status.IsActive,
		})

	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method "+req.Method, nil)
	}
}
