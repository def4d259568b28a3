// Package workflow enforces the legal status transitions for every
// request type and keeps the append-only audit trail.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"caisseflow/internal/common"
)

// Statuses shared across request types. The strings are user-facing and
// stored verbatim, matching the language of the Slack workspace.
const (
	StatusPending     = "En attente"
	StatusPreApproved = "Pré-approuvé"
	StatusValidated   = "Validé"
	StatusApproved    = "Approuvé"
	StatusRejected    = "Rejeté"
	StatusDeleted     = "Supprimée"
)

// EntityKind selects the transition table.
type EntityKind string

const (
	KindOrder           EntityKind = "order"
	KindPaymentRequest  EntityKind = "payment_request"
	KindFundingRequest  EntityKind = "funding_request"
	KindTransferRequest EntityKind = "transfer_request"
)

// HistoryEntry is one audit record. History is append-only: entries are
// never mutated or pruned.
type HistoryEntry struct {
	Stage     string `json:"stage" bson:"stage"`
	Timestamp int64  `json:"timestamp" bson:"timestamp"`
	Actor     string `json:"actor" bson:"actor"`
	Details   string `json:"details,omitempty" bson:"details,omitempty"`
}

// State is the embedded workflow block carried by request documents.
type State struct {
	Stage   string         `json:"stage" bson:"stage"`
	History []HistoryEntry `json:"history" bson:"history"`
}

// NewEntry builds a history record stamped with the current time.
func NewEntry(stage, actor, details string) HistoryEntry {
	return HistoryEntry{
		Stage:     stage,
		Timestamp: time.Now().UnixMilli(),
		Actor:     actor,
		Details:   details,
	}
}

// transitions maps each kind to its legal status moves.
var transitions = map[EntityKind]map[string][]string{
	KindOrder: {
		StatusPending:   {StatusValidated, StatusRejected, StatusDeleted},
		StatusValidated: {StatusDeleted},
	},
	KindPaymentRequest: {
		StatusPending:   {StatusValidated, StatusRejected, StatusDeleted},
		StatusValidated: {StatusDeleted},
	},
	KindFundingRequest: {
		StatusPending:     {StatusPreApproved, StatusRejected},
		StatusPreApproved: {StatusValidated, StatusRejected},
	},
	KindTransferRequest: {
		StatusPending: {StatusApproved, StatusRejected},
	},
}

// CanTransition reports whether moving from current to target is legal
// for the given kind.
func CanTransition(kind EntityKind, current, target string) bool {
	for _, allowed := range transitions[kind][current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the given status.
func IsTerminal(kind EntityKind, status string) bool {
	return len(transitions[kind][status]) == 0
}

// Guard validates a transition. On an illegal move it returns an
// InvalidState error quoting the current status, so the caller can tell
// the user why nothing happened instead of silently succeeding.
func Guard(kind EntityKind, current, target string) error {
	if CanTransition(kind, current, target) {
		return nil
	}
	var msg string
	switch current {
	case StatusApproved, StatusValidated:
		msg = fmt.Sprintf("Cette demande a déjà été approuvée (statut actuel: %s)", current)
	case StatusRejected:
		msg = fmt.Sprintf("Cette demande a déjà été rejetée (statut actuel: %s)", current)
	case StatusDeleted:
		msg = "Cette demande a été supprimée"
	default:
		msg = fmt.Sprintf("Transition impossible depuis le statut actuel: %s", current)
	}
	return common.NewInvalidState(msg, current)
}

// RequireReason validates the mandatory free-text reason on rejection.
// Whitespace alone is not a reason.
func RequireReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return common.ErrReasonRequired
	}
	return nil
}
