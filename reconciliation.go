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

	"github.com/shopspring/decimal"

	"github.com/usagegate/usagegate/config"
	"github.com/usagegate/usagegate/internal/apierror"
	"github.com/usagegate/usagegate/model"
)

const (
	startMarker = "AUTO"
	endMarker   = "END"

	// Identifiers are exactly 20 characters; shorter prefixes in a payment
	// reference cannot be attributed to an account.
	identifierLength = 20

	// Absolute tolerance when comparing the expected charge against the
	// paid amount, absorbing currency rounding.
	amountTolerance = "0.01"
)

// ParseReference extracts the identifier+units payload from a free-text
// payment reference. The payload is the substring strictly between the
// first start marker and the first end marker after it. References without
// both markers are not rejected; the whole trimmed string degrades to being
// the payload.
func ParseReference(content string) string {
	trimmed := strings.TrimSpace(content)

	start := strings.Index(trimmed, startMarker)
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start+len(startMarker):]
	end := strings.Index(rest, endMarker)
	if end < 0 {
		return trimmed
	}
	return strings.TrimSpace(rest[:end])
}

// splitPayload decomposes a payload into identifier and units string.
// A "-" separates the two explicitly; without one, the first 20 characters
// are the identifier and the remainder is the units string.
func splitPayload(payload string) (string, string, error) {
	payload = strings.TrimSpace(payload)
	if len(payload) < identifierLength {
		return "", "", fmt.Errorf("payload must be at least %d characters, got %d",
			identifierLength, len(payload))
	}

	if sep := strings.Index(payload, "-"); sep >= 0 {
		id := strings.TrimSpace(payload[:sep])
		units := strings.TrimSpace(payload[sep+1:])
		if len(id) < identifierLength {
			return "", "", fmt.Errorf("identifier must be at least %d characters, got %d",
				identifierLength, len(id))
		}
		return id, units, nil
	}

	return payload[:identifierLength], strings.TrimSpace(payload[identifierLength:]), nil
}

// ReconcilePayment reconciles a payment against the priced-unit
// configuration and provisions the ledger record for the identifier in the
// payment reference.
//
// When the paid amount matches the expected charge for the requested units
// (within tolerance), the record is sized to the requested units. On a
// mismatch the buyer gets exactly what they paid for: limit becomes
// paid / unit price. Re-provisioning an existing identifier keeps its
// original creation timestamp but overwrites count and active outright.
func (l *UsageGate) ReconcilePayment(_ context.Context, reference string, paidAmount float64) (*model.UsageResult, error) {
	conf, err := config.Fetch()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"configuration is not loaded", model.UsagePayload{})
	}
	if conf.Pricing.UnitPrice <= 0 || conf.Pricing.BatchSize <= 0 {
		return model.FailureResult(apierror.ErrInternalServer,
			"pricing is not configured: unit_price and batch_size are required",
			model.UsagePayload{})
	}

	payload := ParseReference(reference)
	id, unitsStr, err := splitPayload(payload)
	if err != nil {
		return model.FailureResult(apierror.ErrInvalidInput, err.Error(), model.UsagePayload{})
	}
	if unitsStr == "" {
		return model.FailureResult(apierror.ErrInvalidInput,
			"payment reference carries no unit count", model.UsagePayload{ID: id})
	}

	units, err := decimal.NewFromString(unitsStr)
	if err != nil {
		return model.FailureResult(apierror.ErrInvalidInput,
			fmt.Sprintf("unit count is not numeric: %s", unitsStr), model.UsagePayload{ID: id})
	}

	unitPrice := decimal.NewFromFloat(float64(conf.Pricing.UnitPrice))
	batchSize := decimal.NewFromFloat(conf.Pricing.BatchSize)
	paid := decimal.NewFromFloat(paidAmount)
	tolerance := decimal.RequireFromString(amountTolerance)

	expected := unitPrice.Mul(units.Div(batchSize))
	matches := expected.Sub(paid).Abs().LessThanOrEqual(tolerance)

	var limit float64
	var message string
	if matches {
		limit = roundedLimit(units)
		message = fmt.Sprintf("payment reconciled, limit set to %g", limit)
	} else {
		limit = roundedLimit(paid.Div(unitPrice).Mul(batchSize))
		message = fmt.Sprintf("paid amount %s does not match expected %s, limit set to %g from the paid amount",
			paid.String(), expected.String(), limit)
	}

	l.gate.Acquire()
	defer l.gate.Release()

	records, err := l.datasource.LoadRecords()
	if err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not read the record store", model.UsagePayload{ID: id})
	}

	now := time.Now()
	_, existing := findRecord(records, id)
	if existing != nil {
		// Destructive re-provisioning, not a merge.
		existing.Limit = limit
		existing.Count = 0
		existing.Active = true
		existing.UpdatedAt = &now
	} else {
		records = append(records, &model.Record{
			ID:        id,
			Count:     0,
			Limit:     limit,
			Active:    true,
			CreatedAt: now,
		})
	}

	if err := l.datasource.SaveRecords(records); err != nil {
		return model.FailureResult(apierror.ErrInternalServer,
			"could not persist the record store", model.UsagePayload{ID: id})
	}

	return model.SuccessResult(message, model.UsagePayload{
		ID:     id,
		Count:  0,
		Limit:  limit,
		Active: model.BoolPtr(true),
	}), nil
}

// roundedLimit renders a decimal limit as a float: whole values stay whole,
// fractional ones are rounded to two decimals.
func roundedLimit(d decimal.Decimal) float64 {
	if d.IsInteger() {
		return float64(d.IntPart())
	}
	return d.Round(2).InexactFloat64()
}
