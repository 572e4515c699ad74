package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/helioretail/concierge/internal/agent"
)

// apologyReply is what a customer sees when anything inside a turn fails.
// The HTTP status stays 200 so upstream messaging bridges deliver it as a
// normal reply instead of retrying the webhook.
const apologyReply = "Sorry, I'm experiencing technical difficulties. Please try again."

// TurnProcessor runs one inbound message through the agent workflow.
type TurnProcessor interface {
	Process(ctx context.Context, phoneNo, message, whatsappName string) (agent.Result, error)
}

type Server struct {
	router    *chi.Mux
	port      int
	processor TurnProcessor
	logger    *slog.Logger
}

func NewServer(port int, processor TurnProcessor, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		processor: processor,
		logger:    logger,
	}

	router.Get("/health", s.health)
	router.Post("/agent", s.agentTurn)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type agentRequest struct {
	Query        string `json:"query"`
	PhoneNumber  string `json:"phone_number"`
	WhatsappName string `json:"whatsapp_name"`
}

type agentResponse struct {
	Response  string            `json:"response"`
	Intent    string            `json:"intent"`
	Entities  map[string]string `json:"entities"`
	AgentUsed string            `json:"agent_used"`
}

func (s *Server) agentTurn(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" || req.PhoneNumber == "" {
		s.writeError(w, http.StatusBadRequest, "query and phone_number are required")
		return
	}

	result, err := s.processor.Process(r.Context(), req.PhoneNumber, req.Query, req.WhatsappName)
	if err != nil {
		s.logger.Error("agent turn failed", "phone_no", req.PhoneNumber, "error", err)
		s.writeJSON(w, http.StatusOK, agentResponse{
			Response:  apologyReply,
			Intent:    string(agent.IntentError),
			Entities:  map[string]string{},
			AgentUsed: "error_handler",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, agentResponse{
		Response:  result.Response,
		Intent:    string(result.Intent),
		Entities:  map[string]string{},
		AgentUsed: result.AgentUsed,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"service": "concierge",
		"agents": []string{
			agent.AgentProductDetails,
			agent.AgentInventory,
			agent.AgentComparison,
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
