// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// TriageLevel is the urgency class assigned to a patient by the triage model.
type TriageLevel string

// Supported triage levels. Any other value is treated as [TriageGreen] when a
// priority is computed.
const (
	TriageRed    TriageLevel = "RED"
	TriageYellow TriageLevel = "YELLOW"
	TriageGreen  TriageLevel = "GREEN"
)

// QueueStatus is the workflow state of a queue entry.
type QueueStatus string

// Queue workflow states. Pending and reviewing entries are "active".
const (
	StatusPending   QueueStatus = "pending"
	StatusReviewing QueueStatus = "reviewing"
	StatusCompleted QueueStatus = "completed"
	StatusReferred  QueueStatus = "referred"
)

// Valid reports whether s is one of the four known workflow states.
func (s QueueStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusCompleted, StatusReferred:
		return true
	}
	return false
}

// Active reports whether the entry still waits for a clinician.
func (s QueueStatus) Active() bool {
	return s == StatusPending || s == StatusReviewing
}

// statusRank orders entries the way the server lists them.
func (s QueueStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusReviewing:
		return 1
	case StatusReferred:
		return 2
	case StatusCompleted:
		return 3
	}
	return 4
}

// QueueItem is a single patient entry in the triage queue.
//
// ID is the identity of the entry and never changes once the server has
// acknowledged it. Every other field is mutable. JSON names match the wire
// format of the remote queue server so that snapshots received over the event
// stream, the polling fallback and the broadcast channel decode into the same
// value.
type QueueItem struct {
	// ID is the short, human-readable patient identifier (eight upper-case
	// hexadecimal characters).
	ID string `json:"id"`

	// CreatedAt is the moment the entry was first queued.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the moment of the last status change.
	UpdatedAt time.Time `json:"updated_at"`

	TriageLevel      TriageLevel `json:"triage_level"`
	TriageScore      int         `json:"triage_score"`
	TriageConfidence int         `json:"triage_confidence"`
	TriageMessage    string      `json:"triage_message,omitempty"`
	TriageAction     string      `json:"triage_action,omitempty"`

	// Audio quality of the recording the triage was computed from.
	SNRDB             *float64 `json:"snr_db,omitempty"`
	SpeechPercentage  *float64 `json:"speech_percentage,omitempty"`
	QualityIsReliable bool     `json:"quality_is_reliable"`

	WhisperTranscription string   `json:"whisper_transcription,omitempty"`
	WhisperConfidence    *float64 `json:"whisper_confidence,omitempty"`
	WhisperAvgLogprob    *float64 `json:"whisper_avg_logprob,omitempty"`

	WERScore    *float64 `json:"wer_score,omitempty"`
	WERSeverity string   `json:"wer_severity,omitempty"`

	AgreementPercentage *int   `json:"agreement_percentage,omitempty"`
	AgreementConsensus  string `json:"agreement_consensus,omitempty"`
	AgreementVerdict    string `json:"agreement_verdict,omitempty"`

	// Flags, DetailedFlags and Features are opaque documents produced by the
	// analysis pipeline. They are stored and forwarded without interpretation.
	Flags         json.RawMessage `json:"flags,omitempty"`
	DetailedFlags json.RawMessage `json:"detailedFlags,omitempty"`
	Features      json.RawMessage `json:"features,omitempty"`

	Status     QueueStatus `json:"status"`
	Priority   int         `json:"priority"`
	Notes      string      `json:"notes,omitempty"`
	ReviewedBy string      `json:"reviewed_by,omitempty"`
	ReferredTo string      `json:"referred_to,omitempty"`
}

// QueueItemPatch is a partial update of a [QueueItem]. Nil fields are left
// untouched; non-nil fields overwrite the current value (last writer wins per
// field).
type QueueItemPatch struct {
	Status     *QueueStatus `json:"status,omitempty"`
	Notes      *string      `json:"notes,omitempty"`
	ReviewedBy *string      `json:"reviewed_by,omitempty"`
	ReferredTo *string      `json:"referred_to,omitempty"`
	Priority   *int         `json:"priority,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p QueueItemPatch) Empty() bool {
	return p.Status == nil && p.Notes == nil && p.ReviewedBy == nil &&
		p.ReferredTo == nil && p.Priority == nil
}

// Apply returns a copy of item with every non-nil field of the patch merged
// in. UpdatedAt is set to at when at least one field changed.
func (p QueueItemPatch) Apply(item QueueItem, at time.Time) QueueItem {
	if p.Empty() {
		return item
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.Notes != nil {
		item.Notes = *p.Notes
	}
	if p.ReviewedBy != nil {
		item.ReviewedBy = *p.ReviewedBy
	}
	if p.ReferredTo != nil {
		item.ReferredTo = *p.ReferredTo
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
	item.UpdatedAt = at
	return item
}

// CalculatePriority returns the queue priority for a triage result. Lower
// numbers are more urgent. RED starts at 1, YELLOW at 4 and GREEN (or any
// unknown level) at 7; higher confidence moves the entry up to two places
// forward. The result is always within [1, 9].
func CalculatePriority(level TriageLevel, confidence int) int {
	base := 7
	switch TriageLevel(strings.ToUpper(string(level))) {
	case TriageRed:
		base = 1
	case TriageYellow:
		base = 4
	}

	priority := base + 2 - confidence/50
	return min(9, max(1, priority))
}

// SortQueue orders items the way the queue is presented: by workflow state
// (pending, reviewing, referred, completed), then by priority, then oldest
// first. The slice is sorted in place.
func SortQueue(items []QueueItem) {
	slices.SortStableFunc(items, func(a, b QueueItem) int {
		if d := a.Status.rank() - b.Status.rank(); d != 0 {
			return d
		}
		if d := a.Priority - b.Priority; d != 0 {
			return d
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// QueueStats summarises the queue.
type QueueStats struct {
	// ByLevel counts active entries per triage level.
	ByLevel map[TriageLevel]int `json:"by_level"`
	// ByStatus counts all entries per workflow state.
	ByStatus map[QueueStatus]int `json:"by_status"`
	// ActiveCount is the number of pending and reviewing entries.
	ActiveCount int `json:"active_count"`
	// TotalCount is the number of entries regardless of state.
	TotalCount int `json:"total_count"`
	// Ledger counts local pending mutations by their state. It is filled by
	// the client only and never sent by the server.
	Ledger map[MutationStatus]int `json:"ledger,omitempty"`
}
