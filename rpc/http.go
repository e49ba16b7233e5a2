package rpc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"noctura/native/crosschain"
	"noctura/native/sale"
	"noctura/native/staking"
	"noctura/native/vesting"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20
	ratePerSecond   = 2
	rateBurst       = 120
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server exposes the module engines over JSON-RPC 2.0. Mutating methods are
// gated by the bearer token when one is configured; caller identities arrive
// as parameters from the authenticated gateway.
type Server struct {
	sale       *sale.Engine
	staking    *staking.Engine
	crosschain *crosschain.Engine
	vesting    *vesting.Engine
	logger     *slog.Logger

	authToken string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer wires the engines into an RPC server.
func NewServer(saleEng *sale.Engine, stakingEng *staking.Engine, crossEng *crosschain.Engine, vestEng *vesting.Engine, logger *slog.Logger, authToken string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sale:       saleEng,
		staking:    stakingEng,
		crosschain: crossEng,
		vesting:    vestEng,
		logger:     logger,
		authToken:  strings.TrimSpace(authToken),
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Router builds the HTTP mux: the RPC endpoint plus health and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("rpc listening", slog.String("addr", addr))
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) allowSource(source string) bool {
	s.mu.Lock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(ratePerSecond, rateBurst)
		s.limiters[source] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	return header == "Bearer "+s.authToken
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	source, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		source = r.RemoteAddr
	}
	if !s.allowSource(source) {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req RPCRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	if mutatingMethod(req.Method) && !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "missing or invalid auth token", nil)
		return
	}
	s.dispatch(w, &req)
}

func mutatingMethod(method string) bool {
	switch method {
	case "sale_status", "sale_allocation",
		"stake_get", "stake_pool",
		"xchain_allocation", "xchain_referral",
		"vesting_status":
		return false
	}
	return true
}

func (s *Server) dispatch(w http.ResponseWriter, req *RPCRequest) {
	switch {
	case strings.HasPrefix(req.Method, "sale_"):
		s.handleSale(w, req)
	case strings.HasPrefix(req.Method, "stake_"):
		s.handleStaking(w, req)
	case strings.HasPrefix(req.Method, "xchain_"):
		s.handleCrossChain(w, req)
	case strings.HasPrefix(req.Method, "vesting_"):
		s.handleVesting(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

func parseParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected a single params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddr(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("invalid %s address", field)
	}
	return common.HexToAddress(trimmed), nil
}

func parseTier(value string) (staking.Tier, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "tiera", "a":
		return staking.TierA, nil
	case "tierb", "b":
		return staking.TierB, nil
	case "tierc", "c":
		return staking.TierC, nil
	}
	return 0, fmt.Errorf("invalid tier %q", value)
}

func addrHex(addr [20]byte) string {
	return common.Address(addr).Hex()
}

// engineError maps module errors onto the server error code. Input shape
// problems surface as invalid params upstream; everything the engines reject
// is a domain failure.
func engineError(w http.ResponseWriter, id interface{}, err error) {
	writeError(w, http.StatusOK, id, codeServerError, err.Error(), nil)
}
