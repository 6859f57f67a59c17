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

package usagegate

import (
	"context"
	"fmt"
	"time"

	"github.com/usagegate/usagegate/internal/apierror"
	"github.com/usagegate/usagegate/model"
)

// pendingCountFor counts outstanding pending reservations against an id.
// Completed and cancelled requests never count again.
func pendingCountFor(requests map[string]*model.PendingRequest, id string) int64 {
	var n int64
	for _, req := range requests {
		if req.RecordID == id && req.IsPending() {
			n++
		}
	}
	return n
}

// ReserveUse is the first half of the two-phase consumption protocol: it
// validates the account and holds one slot without incrementing anything,
// so the caller can verify an external condition before committing.
//
// Admission is strict: count plus the outstanding pending total must stay
// below the limit. This is deliberately tighter than the hard increment,
// which allows consumption through count == limit; the two paths have
// always diverged by one and callers depend on each behavior.
func (l *UsageGate) ReserveUse(_ context.Context, id string) (*model.UsageResult, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	records, err := l.datasource.LoadRecords()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the record store", model.UsagePayload{ID: id})
	}

	_, record := findRecord(records, id)
	if record == nil {
		return model.FailureResult(apierror.ErrNotFound,
			fmt.Sprintf("no record found for id: %s", id), model.UsagePayload{ID: id})
	}

	payload := model.UsagePayload{
		ID:    id,
		Count: record.Count,
		Limit: record.Limit,
	}

	if !record.Active {
		payload.Active = model.BoolPtr(false)
		return model.FailureResult(apierror.ErrAccountLocked, "account is locked", payload)
	}

	requests, err := l.datasource.LoadRequests()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the pending-request index", payload)
	}

	pending := pendingCountFor(requests, id)
	if record.RemainingForReservation(pending) == 0 {
		return model.FailureResult(apierror.ErrLimitReached,
			fmt.Sprintf("no reservation slots left: count=%d pending=%d limit=%g",
				record.Count, pending, record.Limit), payload)
	}

	request := &model.PendingRequest{
		RequestID: model.GenerateUUIDWithSuffix("req"),
		RecordID:  id,
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	}
	requests[request.RequestID] = request

	if err := l.datasource.SaveRequests(requests); err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not persist the pending-request index", payload)
	}

	payload.RequestID = request.RequestID
	payload.Active = model.BoolPtr(true)
	return model.SuccessResult("reservation created", payload), nil
}

// CommitReservation is the second half of the protocol: it turns a pending
// reservation into a real consumed unit. The account is re-validated
// against live state, because it may have been locked or drained between
// reserve and commit; that is an ordinary policy violation, not a fault.
//
// Commit is deliberately not idempotent. Committing a request that already
// left pending fails loudly with its terminal status, and the count moves
// by exactly one per request over its lifetime.
func (l *UsageGate) CommitReservation(_ context.Context, requestID string) (*model.UsageResult, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	requests, err := l.datasource.LoadRequests()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the pending-request index", model.UsagePayload{RequestID: requestID})
	}

	request, ok := requests[requestID]
	if !ok {
		return model.FailureResult(apierror.ErrNotFound,
			fmt.Sprintf("no reservation found for request id: %s", requestID),
			model.UsagePayload{RequestID: requestID})
	}
	if !request.IsPending() {
		return model.FailureResult(apierror.ErrConflict,
			fmt.Sprintf("reservation is already %s", request.Status),
			model.UsagePayload{ID: request.RecordID, RequestID: requestID})
	}

	records, err := l.datasource.LoadRecords()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the record store", model.UsagePayload{ID: request.RecordID, RequestID: requestID})
	}

	_, record := findRecord(records, request.RecordID)
	if record == nil {
		return model.FailureResult(apierror.ErrNotFound,
			fmt.Sprintf("no record found for id: %s", request.RecordID),
			model.UsagePayload{ID: request.RecordID, RequestID: requestID})
	}

	payload := model.UsagePayload{
		ID:        record.ID,
		Count:     record.Count,
		Limit:     record.Limit,
		RequestID: requestID,
	}

	if !record.Active {
		payload.Active = model.BoolPtr(false)
		return model.FailureResult(apierror.ErrAccountLocked, "account is locked", payload)
	}
	// Unlike the hard increment, commit never deletes: an exhausted record
	// is reported and left intact.
	if float64(record.Count) >= record.Limit {
		return model.FailureResult(apierror.ErrLimitReached,
			"account has no uses left to commit", payload)
	}

	record.Count++
	now := time.Now()
	record.UpdatedAt = &now
	if err := l.datasource.SaveRecords(records); err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not persist the record store", payload)
	}

	request.Status = model.StatusCompleted
	request.CompletedAt = &now
	if err := l.datasource.SaveRequests(requests); err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not persist the pending-request index", payload)
	}

	l.clearCounter(record.ID)

	payload.Count = record.Count
	payload.Active = model.BoolPtr(true)
	return model.SuccessResult(
		fmt.Sprintf("reservation committed, count increased to %d", record.Count), payload), nil
}

// CancelReservation releases a pending reservation without consuming
// anything. The account record is never touched: a cancelled reservation
// frees its slot simply because admission only counts pending requests.
func (l *UsageGate) CancelReservation(_ context.Context, requestID string) (*model.UsageResult, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	requests, err := l.datasource.LoadRequests()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the pending-request index", model.UsagePayload{RequestID: requestID})
	}

	request, ok := requests[requestID]
	if !ok {
		return model.FailureResult(apierror.ErrNotFound,
			fmt.Sprintf("no reservation found for request id: %s", requestID),
			model.UsagePayload{RequestID: requestID})
	}
	if !request.IsPending() {
		return model.FailureResult(apierror.ErrConflict,
			fmt.Sprintf("reservation is already %s", request.Status),
			model.UsagePayload{ID: request.RecordID, RequestID: requestID})
	}

	now := time.Now()
	request.Status = model.StatusCancelled
	request.CancelledAt = &now
	if err := l.datasource.SaveRequests(requests); err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not persist the pending-request index",
			model.UsagePayload{ID: request.RecordID, RequestID: requestID})
	}

	return model.SuccessResult("reservation cancelled",
		model.UsagePayload{ID: request.RecordID, RequestID: requestID}), nil
}

// GetReservation looks up a reservation by request id.
func (l *UsageGate) GetReservation(_ context.Context, requestID string) (*model.PendingRequest, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	requests, err := l.datasource.LoadRequests()
	if err != nil {
		return nil, err
	}
	request, ok := requests[requestID]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("no reservation found for request id: %s", requestID), requestID)
	}
	return request, nil
}
