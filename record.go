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
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/usagegate/usagegate/internal/apierror"
	"github.com/usagegate/usagegate/model"
)

// findRecord returns the record with the given id and its index, or -1.
func findRecord(records []*model.Record, id string) (int, *model.Record) {
	for i, r := range records {
		if r.ID == id {
			return i, r
		}
	}
	return -1, nil
}

// clearCounter drops the soft-counter entry for id so preview estimates
// restart from the authoritative count. Counter state is advisory; failures
// are logged and never fail the consuming operation.
func (l *UsageGate) clearCounter(id string) {
	counters, err := l.datasource.LoadCounters()
	if err != nil {
		logrus.Warnf("loading soft counters for reset: %v", err)
		return
	}
	if _, ok := counters[id]; !ok {
		return
	}
	delete(counters, id)
	if err := l.datasource.SaveCounters(counters); err != nil {
		logrus.Warnf("saving soft counters after reset: %v", err)
	}
}

// ConsumeUse is the hard increment: it consumes one unit of quota for the
// identifier, or reports why it cannot. An already-exhausted record is
// deleted on the spot so that a future payment can recreate it under the
// same identifier.
//
// Consuming while count == limit is the last legal use; the check is
// pre-increment, so count may end up one past the limit before the record
// is considered spent.
func (l *UsageGate) ConsumeUse(_ context.Context, id string) (*model.UsageResult, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	records, err := l.datasource.LoadRecords()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the record store", model.UsagePayload{ID: id})
	}

	idx, record := findRecord(records, id)
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

	if record.Exhausted() {
		records = append(records[:idx], records[idx+1:]...)
		if err := l.datasource.SaveRecords(records); err != nil {
			return model.FailureResult(apierror.ErrInternalServer,
				"could not persist the record store", payload)
		}
		return model.FailureResult(apierror.ErrLimitExceeded,
			"account is out of uses and has been removed", payload)
	}

	record.Count++
	now := time.Now()
	record.UpdatedAt = &now
	if err := l.datasource.SaveRecords(records); err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not persist the record store", payload)
	}

	l.clearCounter(id)

	payload.Count = record.Count
	payload.Active = model.BoolPtr(true)
	return model.SuccessResult(
		fmt.Sprintf("count increased to %d", record.Count), payload), nil
}

// CheckStatus reports whether the identifier exists and whether it is
// usable, without consuming anything.
func (l *UsageGate) CheckStatus(_ context.Context, id string) (*model.UsageResult, error) {
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
			"purchase not found for this id", model.UsagePayload{ID: id})
	}

	payload := model.UsagePayload{
		ID:     id,
		Count:  record.Count,
		Limit:  record.Limit,
		Active: model.BoolPtr(record.Active),
	}
	if !record.Active {
		return model.FailureResult(apierror.ErrAccountLocked, "account is locked", payload)
	}
	return model.SuccessResult("account is active", payload), nil
}

// GetRecords returns a copy of the full ledger.
func (l *UsageGate) GetRecords(_ context.Context) ([]*model.Record, error) {
	l.gate.Acquire()
	defer l.gate.Release()
	return l.datasource.LoadRecords()
}

// SearchRecords returns all records whose id contains the given fragment,
// case-insensitive.
func (l *UsageGate) SearchRecords(_ context.Context, fragment string) ([]*model.Record, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	records, err := l.datasource.LoadRecords()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(fragment)
	var found []*model.Record
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ID), needle) {
			found = append(found, r)
		}
	}
	return found, nil
}

// RecordUpdate carries the optional fields UpdateRecord may change. Nil
// fields are left untouched.
type RecordUpdate struct {
	Count  *int64
	Limit  *float64
	Active *bool
}

// UpdateRecord applies an administrative update to a record.
func (l *UsageGate) UpdateRecord(_ context.Context, id string, update RecordUpdate) (*model.Record, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	records, err := l.datasource.LoadRecords()
	if err != nil {
		return nil, err
	}

	_, record := findRecord(records, id)
	if record == nil {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("no record found for id: %s", id), id)
	}

	if update.Count != nil {
		record.Count = *update.Count
	}
	if update.Limit != nil {
		record.Limit = *update.Limit
	}
	if update.Active != nil {
		record.Active = *update.Active
	}
	now := time.Now()
	record.UpdatedAt = &now

	if err := l.datasource.SaveRecords(records); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes a record from the ledger.
func (l *UsageGate) DeleteRecord(_ context.Context, id string) (*model.Record, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	records, err := l.datasource.LoadRecords()
	if err != nil {
		return nil, err
	}

	idx, record := findRecord(records, id)
	if record == nil {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("no record found for id: %s", id), id)
	}

	records = append(records[:idx], records[idx+1:]...)
	if err := l.datasource.SaveRecords(records); err != nil {
		return nil, err
	}
	return record, nil
}
