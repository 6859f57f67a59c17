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

import (
	"math"
	"time"
)

// Record is one row of the usage ledger: how many units an identifier has
// consumed against the limit it paid for. The identifier is the unique key
// of the records document.
type Record struct {
	ID        string     `json:"id"`
	Count     int64      `json:"count"`
	Limit     float64    `json:"limit"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CanConsume reports whether a hard increment is still legal for the record.
// Consuming at Count == Limit is the last legal use; after it Count exceeds
// Limit and the record is considered spent.
func (r *Record) CanConsume() bool {
	return r.Active && !r.Exhausted()
}

// Exhausted reports whether the record has gone past its purchased limit.
func (r *Record) Exhausted() bool {
	return float64(r.Count) > r.Limit
}

// RemainingForReservation returns how many reservation slots are still open
// given the outstanding pending total. Reservation admission is strict:
// count + pending must stay below the limit. The comparison is done in
// float so a fractional limit keeps its final partial slot open.
func (r *Record) RemainingForReservation(pending int64) int64 {
	remaining := r.Limit - float64(r.Count) - float64(pending)
	if remaining <= 0 {
		return 0
	}
	return int64(math.Ceil(remaining))
}
