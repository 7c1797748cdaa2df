package providers

import (
	"strings"

	"golang.org/x/text/cases"
)

// Status is the normalized remote job state.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusRunning Status = "running"
)

var statusVocabulary = map[string]Status{
	"success":   StatusSuccess,
	"succeeded": StatusSuccess,
	"succeed":   StatusSuccess,
	"completed": StatusSuccess,
	"complete":  StatusSuccess,
	"done":      StatusSuccess,
	"finished":  StatusSuccess,

	"failed":    StatusFailed,
	"failure":   StatusFailed,
	"fail":      StatusFailed,
	"error":     StatusFailed,
	"canceled":  StatusFailed,
	"cancelled": StatusFailed,
	"expired":   StatusFailed,
	"rejected":  StatusFailed,
	// DashScope reports UNKNOWN for handles it no longer knows about.
	"unknown": StatusFailed,
}

// NormalizeStatus maps a provider's raw status onto success, failed or
// running. Anything unrecognised, including queued and empty states, counts
// as running so the task keeps being polled until it times out.
func NormalizeStatus(raw string) Status {
	// Casers carry state, so each call gets its own.
	key := strings.TrimSpace(cases.Fold().String(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if s, ok := statusVocabulary[key]; ok {
		return s
	}
	return StatusRunning
}
