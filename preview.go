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

	"github.com/usagegate/usagegate/config"
	"github.com/usagegate/usagegate/internal/apierror"
	"github.com/usagegate/usagegate/model"
)

// PreviewUse estimates near-future usage for the identifier without
// consuming anything. Which of the two preview policies runs is a config
// choice; neither is ever consulted for the hard-limit decision.
func (l *UsageGate) PreviewUse(ctx context.Context, id string) (*model.UsageResult, error) {
	conf, err := config.Fetch()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"configuration is not loaded", model.UsagePayload{ID: id})
	}
	if conf.Preview.Mode == config.PreviewOneShot {
		return l.PreviewOneShot(ctx, id)
	}
	return l.PreviewAccumulating(ctx, id)
}

// PreviewAccumulating tracks a per-identifier accumulator of observations
// since the last real increment. The first observation after an increment
// initializes the accumulator to zero without bumping it; every later
// observation adds one. The projected total is count + accumulator.
//
// While the record's count is zero the accumulator is pinned to zero: there
// is nothing to project ahead of until a real use lands.
func (l *UsageGate) PreviewAccumulating(_ context.Context, id string) (*model.UsageResult, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	record, result, err := l.loadActiveRecord(id)
	if record == nil {
		return result, err
	}

	counters, err := l.datasource.LoadCounters()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the soft counters", model.UsagePayload{ID: id})
	}

	if record.Count == 0 {
		counters[id] = 0
	} else if _, seen := counters[id]; !seen {
		counters[id] = 0
	} else {
		counters[id]++
	}

	if err := l.datasource.SaveCounters(counters); err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not persist the soft counters", model.UsagePayload{ID: id})
	}

	preview := counters[id]
	projected := record.Count + preview
	payload := model.UsagePayload{
		ID:        id,
		Count:     record.Count,
		Limit:     record.Limit,
		Active:    model.BoolPtr(true),
		Preview:   preview,
		Projected: projected,
	}

	message := fmt.Sprintf("projected usage is %d of %g", projected, record.Limit)
	if float64(projected) > record.Limit {
		message = fmt.Sprintf("projected usage %d would exceed the limit of %g", projected, record.Limit)
	}
	return model.SuccessResult(message, payload), nil
}

// PreviewOneShot reports count + 1 as the projection. Nothing is persisted;
// every call recomputes from the authoritative count.
func (l *UsageGate) PreviewOneShot(_ context.Context, id string) (*model.UsageResult, error) {
	l.gate.Acquire()
	defer l.gate.Release()

	record, result, err := l.loadActiveRecord(id)
	if record == nil {
		return result, err
	}

	projected := record.Count + 1
	payload := model.UsagePayload{
		ID:        id,
		Count:     record.Count,
		Limit:     record.Limit,
		Active:    model.BoolPtr(true),
		Preview:   1,
		Projected: projected,
	}

	message := fmt.Sprintf("next use would bring usage to %d of %g", projected, record.Limit)
	if float64(projected) > record.Limit {
		message = fmt.Sprintf("next use would exceed the limit of %g", record.Limit)
	}
	return model.SuccessResult(message, payload), nil
}

// loadActiveRecord looks up an id and applies the shared
// not-found/locked/fault checks. It returns a nil record together with the
// failure result when the record is unusable. Callers must hold the gate.
func (l *UsageGate) loadActiveRecord(id string) (*model.Record, *model.UsageResult, error) {
	records, err := l.datasource.LoadRecords()
	if err != nil {
		result, ferr := model.FailureResult(apierror.ErrInternalServer,
			"could not read the record store", model.UsagePayload{ID: id})
		return nil, result, ferr
	}

	_, record := findRecord(records, id)
	if record == nil {
		result, ferr := model.FailureResult(apierror.ErrNotFound,
			fmt.Sprintf("no record found for id: %s", id), model.UsagePayload{ID: id})
		return nil, result, ferr
	}
	if !record.Active {
		result, ferr := model.FailureResult(apierror.ErrAccountLocked, "account is locked",
			model.UsagePayload{
				ID:     id,
				Count:  record.Count,
				Limit:  record.Limit,
				Active: model.BoolPtr(false),
			})
		return nil, result, ferr
	}
	return record, nil, nil
}
