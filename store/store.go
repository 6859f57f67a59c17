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

package store

import "github.com/usagegate/usagegate/model"

// DataSource is the persistence boundary of the ledger. Every document is
// loaded and replaced as a whole; there are no partial writes. Load
// operations return an empty default when the document does not exist yet.
//
// Callers are responsible for serializing read-modify-write cycles through
// the gate; the store itself performs no locking.
type DataSource interface {
	LoadRecords() ([]*model.Record, error)
	SaveRecords(records []*model.Record) error

	LoadRequests() (map[string]*model.PendingRequest, error)
	SaveRequests(requests map[string]*model.PendingRequest) error

	LoadCounters() (map[string]int64, error)
	SaveCounters(counters map[string]int64) error

	LoadSessions() (map[string]*model.Session, error)
	SaveSessions(sessions map[string]*model.Session) error

	LoadOTPCodes() (map[string]*model.OTPCode, error)
	SaveOTPCodes(codes map[string]*model.OTPCode) error
}
