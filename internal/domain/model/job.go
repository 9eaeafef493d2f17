package model

import (
	"fmt"
	"strings"
	"time"
)

// Trigger names the upstream change that asked for a recompute.
type Trigger string

// Known triggers.
const (
	TriggerProfileSaved      Trigger = "profile_saved"
	TriggerEmailVerified     Trigger = "email_verified"
	TriggerConnectionChanged Trigger = "connection_changed"
	TriggerManual            Trigger = "manual"
)

// ParseTrigger validates a trigger name. An empty name means manual.
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return TriggerManual, nil
	case TriggerProfileSaved, TriggerEmailVerified, TriggerConnectionChanged, TriggerManual:
		return t, nil
	default:
		return "", fmt.Errorf("unknown trigger %q", s)
	}
}

// RecomputeJob asks the worker pool to rescore one creator from a freshly
// fetched snapshot.
type RecomputeJob struct {
	JobID      string    // unique id for idempotency
	CreatorID  string    // subject creator
	Trigger    Trigger   // what changed upstream
	Snapshot   Snapshot  // state to score
	EnqueuedAt time.Time // set when accepted
}

// CreatorScore is the latest breakdown computed for a creator.
type CreatorScore struct {
	CreatorID  string
	Breakdown  Breakdown
	ComputedAt time.Time
}
