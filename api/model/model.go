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
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/usagegate/usagegate"
)

// PaymentNotice is the webhook payload the payment provider posts on a
// completed transfer.
type PaymentNotice struct {
	Content        string  `json:"content"`
	TransferAmount float64 `json:"transferAmount"`
}

func (p *PaymentNotice) ValidatePaymentNotice() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Content, validation.Required),
		validation.Field(&p.TransferAmount, validation.Required, validation.Min(0.0)),
	)
}

// UsageRequest targets one ledger identifier.
type UsageRequest struct {
	ID string `json:"id"`
}

func (u *UsageRequest) ValidateUsageRequest() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.ID, validation.Required, validation.Length(20, 0)),
	)
}

// UpdateRecord carries the optional administrative field updates.
type UpdateRecord struct {
	Count  *int64   `json:"count"`
	Limit  *float64 `json:"limit"`
	Active *bool    `json:"active"`
}

func (u *UpdateRecord) ValidateUpdateRecord() error {
	if u.Count == nil && u.Limit == nil && u.Active == nil {
		return validation.NewError("validation_empty_update",
			"at least one of count, limit or active must be set")
	}
	return validation.ValidateStruct(u,
		validation.Field(&u.Limit, validation.When(u.Limit != nil, validation.Min(0.0))),
	)
}

// ToRecordUpdate converts the payload to the service-level update.
func (u *UpdateRecord) ToRecordUpdate() usagegate.RecordUpdate {
	return usagegate.RecordUpdate{
		Count:  u.Count,
		Limit:  u.Limit,
		Active: u.Active,
	}
}

// CreateOTP requests a one-time login code for an email address.
type CreateOTP struct {
	Email string `json:"email"`
}

func (o *CreateOTP) ValidateCreateOTP() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Email, validation.Required, is.Email),
	)
}

// Login exchanges an email and one-time code for a session token.
type Login struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (l *Login) ValidateLogin() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Email, validation.Required, is.Email),
		validation.Field(&l.OTP, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

// Logout invalidates a session token.
type Logout struct {
	Token string `json:"token"`
}

func (l *Logout) ValidateLogout() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Token, validation.Required),
	)
}
