package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helioretail/concierge/internal/session"
	"github.com/helioretail/concierge/internal/store"
)

const (
	// contextTurns is how many recent turns feed the prompt context.
	contextTurns = 10
	// archiveLoadLimit caps how many messages of a prior conversation the
	// snapshot load pulls back.
	archiveLoadLimit = 20

	AgentProductDetails = "product_details_agent"
	AgentInventory      = "inventory_management_agent"
	AgentComparison     = "product_comparison_agent"
)

// TurnRequest carries everything a handler needs for one turn.
type TurnRequest struct {
	Message     string
	PhoneNo     string
	Customer    store.CustomerResult
	ChatContext string
}

// Result is the outcome of one routed turn.
type Result struct {
	Response              string
	Intent                Intent
	AgentUsed             string
	IsNewUser             bool
	PreviousConversations session.SnapshotResult
}

// Router sequences one inbound message through the fixed state machine:
// identify-or-create customer, load prior context, classify, dispatch to
// the matching handler, record the turn. Each transition is unconditional
// given its branch; there are no retries, and any error surfaces to the
// caller as the whole turn failing.
type Router struct {
	store      CatalogStore
	cache      *session.Cache
	classifier *Classifier
	details    *ProductDetailsHandler
	inventory  *InventoryHandler
	comparison *ComparisonHandler
	logger     *slog.Logger
}

func NewRouter(s CatalogStore, cache *session.Cache, llm Completer, comparer Comparer, logger *slog.Logger) *Router {
	return &Router{
		store:      s,
		cache:      cache,
		classifier: NewClassifier(llm, logger),
		details:    NewProductDetailsHandler(s, llm, logger),
		inventory:  NewInventoryHandler(s, llm, logger),
		comparison: NewComparisonHandler(s, comparer, llm, logger),
		logger:     logger,
	}
}

// Process runs the full workflow for one inbound message and returns the
// generated reply. On success the user message and the reply are both
// recorded in the session cache; a failed turn leaves no trace in memory.
func (r *Router) Process(ctx context.Context, phoneNo, message, whatsappName string) (Result, error) {
	// user_check
	customer, err := r.store.GetOrCreateCustomer(ctx, phoneNo, whatsappName)
	if err != nil {
		return Result{}, fmt.Errorf("user check: %w", err)
	}
	isNewUser := customer.Created

	// load_context | new_user
	var previous session.SnapshotResult
	if isNewUser {
		previous = session.SnapshotResult{Message: "New user - no previous conversations"}
	} else {
		previous, err = r.cache.LoadSnapshot(ctx, phoneNo, archiveLoadLimit)
		if err != nil {
			// Prior history is best effort; the turn proceeds without it.
			r.logger.Warn("loading previous conversations failed", "phone_no", phoneNo, "error", err)
			previous = session.SnapshotResult{Message: "Previous conversations unavailable"}
		}
	}

	// classify
	intent, err := r.classifier.Classify(ctx, message)
	if err != nil {
		return Result{}, err
	}

	chatContext, err := r.cache.Context(ctx, phoneNo, contextTurns)
	if err != nil {
		return Result{}, fmt.Errorf("session context: %w", err)
	}

	req := TurnRequest{
		Message:     message,
		PhoneNo:     phoneNo,
		Customer:    customer,
		ChatContext: chatContext,
	}

	// dispatch
	var (
		reply     string
		agentUsed string
	)
	switch intent {
	case IntentInventoryManagement:
		agentUsed = AgentInventory
		reply, err = r.inventory.Handle(ctx, req)
	case IntentProductComparison:
		agentUsed = AgentComparison
		reply, err = r.comparison.Handle(ctx, req)
	default:
		agentUsed = AgentProductDetails
		reply, err = r.details.Handle(ctx, req)
	}
	if err != nil {
		return Result{}, err
	}

	// respond
	err = r.cache.AppendTurn(ctx, phoneNo,
		session.Turn{Sender: session.SenderUser, Message: message},
		session.Turn{Sender: session.SenderBot, Message: reply},
	)
	if err != nil {
		return Result{}, fmt.Errorf("record turn: %w", err)
	}

	r.logger.Info("processed message",
		"phone_no", phoneNo,
		"intent", intent,
		"agent", agentUsed,
		"new_user", isNewUser,
	)

	return Result{
		Response:              reply,
		Intent:                intent,
		AgentUsed:             agentUsed,
		IsNewUser:             isNewUser,
		PreviousConversations: previous,
	}, nil
}
