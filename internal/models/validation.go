package models

import (
	"fmt"
	"strings"
)

// MessageKind classifies a validation finding.
type MessageKind string

const (
	KindError   MessageKind = "error"
	KindWarning MessageKind = "warning"
	KindInfo    MessageKind = "info"
)

// Rank orders kinds by severity, lower is more severe.
func (k MessageKind) Rank() int {
	switch k {
	case KindError:
		return 0
	case KindWarning:
		return 1
	case KindInfo:
		return 2
	default:
		return 3
	}
}

func ParseMessageKind(s string) (MessageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "errors":
		return KindError, nil
	case "warning", "warnings", "warn":
		return KindWarning, nil
	case "info":
		return KindInfo, nil
	default:
		return "", fmt.Errorf("unknown validation kind %q", s)
	}
}

// ValidationMessage is a diagnostic attached to a record. It reports a data
// quality issue and never blocks the record.
type ValidationMessage struct {
	Kind       MessageKind `json:"type"`
	Field      string      `json:"field,omitempty"`
	Message    string      `json:"message"`
	Context    string      `json:"context,omitempty"`
	Impact     string      `json:"impact,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
	Priority   int         `json:"priority,omitempty"`
}

type ValidationResult struct {
	IsValid         bool                `json:"is_valid"`
	Errors          []ValidationMessage `json:"errors"`
	Warnings        []ValidationMessage `json:"warnings"`
	ConfidenceScore float64             `json:"confidence_score"`
	SuggestedFixes  map[string]string   `json:"suggested_fixes"`
}

// Messages returns errors followed by warnings.
func (r ValidationResult) Messages() []ValidationMessage {
	out := make([]ValidationMessage, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}
