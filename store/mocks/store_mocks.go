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
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/usagegate/usagegate/model"
)

// MockDataSource is a mock implementation of the store.DataSource interface
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) LoadRecords() ([]*model.Record, error) {
	args := m.Called()
	return args.Get(0).([]*model.Record), args.Error(1)
}

func (m *MockDataSource) SaveRecords(records []*model.Record) error {
	args := m.Called(records)
	return args.Error(0)
}

func (m *MockDataSource) LoadRequests() (map[string]*model.PendingRequest, error) {
	args := m.Called()
	return args.Get(0).(map[string]*model.PendingRequest), args.Error(1)
}

func (m *MockDataSource) SaveRequests(requests map[string]*model.PendingRequest) error {
	args := m.Called(requests)
	return args.Error(0)
}

func (m *MockDataSource) LoadCounters() (map[string]int64, error) {
	args := m.Called()
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockDataSource) SaveCounters(counters map[string]int64) error {
	args := m.Called(counters)
	return args.Error(0)
}

func (m *MockDataSource) LoadSessions() (map[string]*model.Session, error) {
	args := m.Called()
	return args.Get(0).(map[string]*model.Session), args.Error(1)
}

func (m *MockDataSource) SaveSessions(sessions map[string]*model.Session) error {
	args := m.Called(sessions)
	return args.Error(0)
}

func (m *MockDataSource) LoadOTPCodes() (map[string]*model.OTPCode, error) {
	args := m.Called()
	return args.Get(0).(map[string]*model.OTPCode), args.Error(1)
}

func (m *MockDataSource) SaveOTPCodes(codes map[string]*model.OTPCode) error {
	args := m.Called(codes)
	return args.Error(0)
}
