package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pricereg/priceregd/internal/registry"
)

// Server handles HTTP JSON-RPC requests against a registry instance.
type Server struct {
	methods  *MethodRegistry
	registry *registry.Registry
	isAdmin  func(clientIP string) bool
	timeout  time.Duration

	httpServer *http.Server
}

// NewServer creates a new RPC server. isAdmin decides, per client IP,
// whether the request runs with the admin role; a nil func means no client
// is admin.
func NewServer(reg *registry.Registry, isAdmin func(string) bool, timeout time.Duration) *Server {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}

	server := &Server{
		methods:  NewMethodRegistry(),
		registry: reg,
		isAdmin:  isAdmin,
		timeout:  timeout,
	}

	server.registerAllMethods()

	return server
}

// Methods returns the method registry, mainly for introspection in tests.
func (s *Server) Methods() *MethodRegistry {
	return s.methods
}

// Start begins serving on the given address. It blocks until the listener
// fails or Stop is called.
func (s *Server) Start(address string) error {
	s.httpServer = &http.Server{
		Addr:         address,
		Handler:      s,
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
	}

	log.Printf("JSON-RPC server listening on %s", address)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Request is the JSON-RPC request envelope:
// {"method": "method_name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" && r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Method == "GET" {
		s.handleGetRequest(w, r)
		return
	}

	s.handlePostRequest(w, r)
}

// handleGetRequest processes GET requests with query parameters. Only
// read methods are reachable this way.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	method := query.Get("command")

	if method == "" {
		// Default to server_info for GET requests without command
		method = "server_info"
	}

	ctx := s.newRpcContext(r)

	result, rpcErr := s.executeMethod(method, nil, ctx)

	s.writeResponse(w, nil, result, rpcErr)
}

// handlePostRequest processes POST requests carrying the JSON-RPC payload.
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, nil, "internal", "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, nil, "jsonInvalid", "Invalid JSON: "+err.Error())
		return
	}

	if request.Method == "" {
		s.writeError(w, nil, "missingCommand", "Missing method field")
		return
	}

	// Params is an array with one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := s.newRpcContext(r)

	// Parse API version from params if present
	if params != nil {
		var paramsMap map[string]interface{}
		if err := json.Unmarshal(params, &paramsMap); err == nil {
			if apiVer, ok := paramsMap["api_version"]; ok {
				if ver, ok := apiVer.(float64); ok {
					ctx.ApiVersion = int(ver)
				}
			}
		}
	}

	result, rpcErr := s.executeMethod(request.Method, params, ctx)

	// Echo the request back on errors so clients can match failures
	var requestObj interface{}
	if rpcErr != nil {
		if params != nil {
			var reqMap map[string]interface{}
			if err := json.Unmarshal(params, &reqMap); err == nil {
				reqMap["command"] = request.Method
				requestObj = reqMap
			}
		} else {
			requestObj = map[string]interface{}{"command": request.Method}
		}
	}

	s.writeResponse(w, requestObj, result, rpcErr)
}

// newRpcContext resolves the transport-level identity of the request.
func (s *Server) newRpcContext(r *http.Request) *RpcContext {
	clientIP := getClientIP(r)
	admin := s.isAdmin(clientIP)

	role := RoleGuest
	if admin {
		role = RoleAdmin
	}

	return &RpcContext{
		Context:    r.Context(),
		Role:       role,
		ApiVersion: DefaultApiVersion,
		IsAdmin:    admin,
		ClientIP:   clientIP,
	}
}

// executeMethod executes an RPC method with the given parameters.
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.methods.Get(method)
	if !exists {
		return nil, RpcErrorMethodNotFound(method)
	}

	if ctx.Role < handler.RequiredRole() {
		return nil, RpcErrorCommandUntrusted(method)
	}

	supportedVersions := handler.SupportedApiVersions()
	if len(supportedVersions) > 0 {
		supported := false
		for _, version := range supportedVersions {
			if ctx.ApiVersion == version {
				supported = true
				break
			}
		}
		if !supported {
			return nil, RpcErrorInvalidApiVersion(strconv.Itoa(ctx.ApiVersion))
		}
	}

	return handler.Handle(ctx, params)
}

// writeResponse writes the response envelope. The result object carries
// status = "success" or "error"; error details sit inside the result.
func (s *Server) writeResponse(w http.ResponseWriter, request interface{}, result interface{}, rpcErr *RpcError) {
	response := make(map[string]interface{})

	if rpcErr != nil {
		resultObj := map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
		response["result"] = resultObj
	} else {
		if resultMap, ok := result.(map[string]interface{}); ok {
			resultMap["status"] = "success"
			response["result"] = resultMap
		} else {
			response["result"] = map[string]interface{}{
				"status": "success",
				"data":   result,
			}
		}
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseData)
}

// writeError writes an error response outside the method dispatch path.
func (s *Server) writeError(w http.ResponseWriter, request interface{}, errorCode string, message string) {
	resultObj := map[string]interface{}{
		"status":        "error",
		"error":         errorCode,
		"error_message": message,
	}
	if request != nil {
		resultObj["request"] = request
	}

	response := map[string]interface{}{
		"result": resultObj,
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal error response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseData)
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return strings.Trim(ip, "[]")
}
