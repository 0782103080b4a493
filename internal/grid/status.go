// Package grid parses browser node /status documents into a capacity view.
// The document shape is the grid node status endpoint's:
//
//	{"value": {"ready": bool, "nodes": [{"slots": [{"session": {...}|null}, ...]}, ...]}}
package grid

import (
	"encoding/json"
	"fmt"
)

// WorkerStatus is one node's capacity snapshot, recomputed on every probe
// and never persisted.
type WorkerStatus struct {
	// Ready is the node's own readiness flag.
	Ready bool

	// Active is the number of occupied session slots across all sub-units.
	Active int

	// Capacity is the total session slot count across all sub-units.
	Capacity int
}

// Available reports whether the node can take one more session.
// A document listing zero slots has capacity 0 and is never available.
func (s WorkerStatus) Available() bool {
	return s.Ready && s.Active < s.Capacity
}

type statusDocument struct {
	Value struct {
		Ready bool `json:"ready"`
		Nodes []struct {
			Slots []struct {
				Session json.RawMessage `json:"session"`
			} `json:"slots"`
		} `json:"nodes"`
	} `json:"value"`
}

// ParseStatus decodes a /status body. An occupied slot is one whose
// session is non-null.
func ParseStatus(body []byte) (WorkerStatus, error) {
	var doc statusDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return WorkerStatus{}, fmt.Errorf("parsing status document: %w", err)
	}

	status := WorkerStatus{Ready: doc.Value.Ready}
	for _, node := range doc.Value.Nodes {
		status.Capacity += len(node.Slots)
		for _, slot := range node.Slots {
			if !sessionIsNull(slot.Session) {
				status.Active++
			}
		}
	}
	return status, nil
}

func sessionIsNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
