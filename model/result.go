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

import "github.com/usagegate/usagegate/internal/apierror"

// UsagePayload is the structured payload every ledger operation returns,
// success or failure. ErrorCode is only set on failure and is drawn from the
// fixed apierror vocabulary so callers can map it to transport status codes.
type UsagePayload struct {
	ID        string             `json:"id"`
	Count     int64              `json:"count"`
	Limit     float64            `json:"limit"`
	Active    *bool              `json:"active,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
	Preview   int64              `json:"preview,omitempty"`
	Projected int64              `json:"projected,omitempty"`
	ErrorCode apierror.ErrorCode `json:"error_code,omitempty"`
}

// UsageResult is the tri-part result contract of the ledger: a success flag,
// a human-readable message and the structured payload. Ledger operations
// never panic across this boundary; every failure path produces one of these.
type UsageResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    UsagePayload `json:"data"`
}

// FailureResult builds a failed UsageResult and the matching APIError in one
// step, keeping the payload and the error code in sync.
func FailureResult(code apierror.ErrorCode, message string, data UsagePayload) (*UsageResult, error) {
	data.ErrorCode = code
	return &UsageResult{Success: false, Message: message, Data: data},
		apierror.NewAPIError(code, message, data)
}

// SuccessResult builds a successful UsageResult.
func SuccessResult(message string, data UsagePayload) *UsageResult {
	return &UsageResult{Success: true, Message: message, Data: data}
}

// BoolPtr returns a pointer to b. Used for the optional Active field of
// UsagePayload.
func BoolPtr(b bool) *bool {
	return &b
}
