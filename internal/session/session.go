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

// Package session manages one-time login codes and TTL-bound session
// tokens on top of the document store. It shares the ledger's
// serialization gate because its documents live in the same store
// directory and follow the same whole-document replace discipline.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/usagegate/usagegate/internal/apierror"
	"github.com/usagegate/usagegate/internal/lock"
	"github.com/usagegate/usagegate/model"
	"github.com/usagegate/usagegate/store"
)

const otpLength = 6

// Manager owns the session and OTP documents.
type Manager struct {
	datasource store.DataSource
	gate       lock.Locker
	ttl        time.Duration
}

// NewManager builds a session manager with the given TTL. A nil gate falls
// back to a dedicated one.
func NewManager(ds store.DataSource, gate lock.Locker, ttl time.Duration) *Manager {
	if gate == nil {
		gate = lock.NewGate()
	}
	return &Manager{datasource: ds, gate: gate, ttl: ttl}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IssueOTP generates a fresh numeric one-time code for the email,
// replacing any previous code for the same address. Delivery is the
// caller's concern.
func (m *Manager) IssueOTP(email string) (string, error) {
	m.gate.Acquire()
	defer m.gate.Release()

	code, err := model.GenerateNumericCode(otpLength)
	if err != nil {
		return "", err
	}

	codes, err := m.datasource.LoadOTPCodes()
	if err != nil {
		return "", err
	}
	codes[normalizeEmail(email)] = &model.OTPCode{
		Code:     code,
		IssuedAt: time.Now(),
	}
	if err := m.datasource.SaveOTPCodes(codes); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyOTP checks the code against the stored one and consumes it on
// success. A code verifies at most once.
func (m *Manager) VerifyOTP(email, code string) error {
	m.gate.Acquire()
	defer m.gate.Release()

	codes, err := m.datasource.LoadOTPCodes()
	if err != nil {
		return err
	}

	key := normalizeEmail(email)
	stored, ok := codes[key]
	if !ok {
		return apierror.NewAPIError(apierror.ErrNotFound,
			"no login code found, request a new one", key)
	}
	if stored.Code != strings.TrimSpace(code) {
		return apierror.NewAPIError(apierror.ErrBadRequest, "login code does not match", key)
	}

	delete(codes, key)
	return m.datasource.SaveOTPCodes(codes)
}

// Create issues a session token for the email. Expired sessions are swept
// while the document is already in hand.
func (m *Manager) Create(email string) (string, error) {
	m.gate.Acquire()
	defer m.gate.Release()

	sessions, err := m.datasource.LoadSessions()
	if err != nil {
		return "", err
	}

	now := time.Now()
	sweepExpired(sessions, now)

	token := model.GenerateUUIDWithSuffix("sess")
	sessions[token] = &model.Session{
		Email:     normalizeEmail(email),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.datasource.SaveSessions(sessions); err != nil {
		return "", err
	}
	return token, nil
}

// Verify resolves a token to its session, treating an expired session the
// same as a missing one. Expired entries found on the way are swept.
func (m *Manager) Verify(token string) (*model.Session, error) {
	m.gate.Acquire()
	defer m.gate.Release()

	sessions, err := m.datasource.LoadSessions()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if swept := sweepExpired(sessions, now); swept > 0 {
		if err := m.datasource.SaveSessions(sessions); err != nil {
			return nil, err
		}
	}

	sess, ok := sessions[token]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			"session not found or expired", fmt.Sprintf("token=%s", token))
	}
	return sess, nil
}

// Destroy removes a session token. Destroying an unknown token is not an
// error.
func (m *Manager) Destroy(token string) error {
	m.gate.Acquire()
	defer m.gate.Release()

	sessions, err := m.datasource.LoadSessions()
	if err != nil {
		return err
	}
	if _, ok := sessions[token]; !ok {
		return nil
	}
	delete(sessions, token)
	return m.datasource.SaveSessions(sessions)
}

func sweepExpired(sessions map[string]*model.Session, now time.Time) int {
	swept := 0
	for token, sess := range sessions {
		if sess.Expired(now) {
			delete(sessions, token)
			swept++
		}
	}
	return swept
}
