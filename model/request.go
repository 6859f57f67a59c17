/*
Copyright 2025 Usagegate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import "time"

const (
	// StatusPending marks a reservation that holds a slot but has not been
	// committed yet. Only pending requests count toward admission.
	StatusPending = "pending"
	// StatusCompleted and StatusCancelled are terminal; a request leaves
	// pending exactly once.
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// PendingRequest is a two-phase claim on one unit of quota. It is keyed by
// RequestID in the pending-request document and carries the account
// identifier it reserves against.
type PendingRequest struct {
	RequestID   string     `json:"request_id"`
	RecordID    string     `json:"id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// IsPending reports whether the request still holds its slot.
func (p *PendingRequest) IsPending() bool {
	return p.Status == StatusPending
}
