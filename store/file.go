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

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/usagegate/usagegate/model"
)

const (
	recordsFile  = "data.json"
	requestsFile = "requests.json"
	countersFile = "temp_count.json"
	sessionsFile = "sessions.json"
	otpFile      = "otp.json"
)

// FileStore persists every document as a JSON file under a single
// directory. Replacement is atomic: the new content is written to a temp
// file in the same directory, fsynced and renamed over the old one, so a
// crash mid-write never leaves a half-written document behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the store directory when missing and returns a store
// rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating store directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// loadDocument decodes the named document into out. A missing file leaves
// out untouched and reports found=false. A malformed file is an error; the
// caller decides whether that is fatal for the document in question.
func (s *FileStore) loadDocument(name string, out interface{}) (bool, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "opening %s", name)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(out); err != nil {
		return true, errors.Wrapf(err, "decoding %s", name)
	}
	return true, nil
}

// replaceDocument atomically replaces the named document with the JSON
// encoding of in.
func (s *FileStore) replaceDocument(name string, in interface{}) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", name)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op when the rename already succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing temp file for %s", name)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "syncing temp file for %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing temp file for %s", name)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return errors.Wrapf(err, "replacing %s", name)
	}
	return nil
}

// LoadRecords loads the account-record list. A malformed list is surfaced as
// an error rather than degraded to empty: silently dropping paid records
// would mask data loss.
func (s *FileStore) LoadRecords() ([]*model.Record, error) {
	var records []*model.Record
	if _, err := s.loadDocument(recordsFile, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*model.Record{}
	}
	return records, nil
}

func (s *FileStore) SaveRecords(records []*model.Record) error {
	return s.replaceDocument(recordsFile, records)
}

// LoadRequests loads the pending-request index. Like the record list, a
// malformed index is an error: requests track admissions against paid quota.
func (s *FileStore) LoadRequests() (map[string]*model.PendingRequest, error) {
	requests := make(map[string]*model.PendingRequest)
	if _, err := s.loadDocument(requestsFile, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = make(map[string]*model.PendingRequest)
	}
	return requests, nil
}

func (s *FileStore) SaveRequests(requests map[string]*model.PendingRequest) error {
	return s.replaceDocument(requestsFile, requests)
}

// LoadCounters loads the soft-counter map. The counters are advisory, so a
// corrupt file degrades to an empty map instead of failing the operation.
func (s *FileStore) LoadCounters() (map[string]int64, error) {
	counters := make(map[string]int64)
	if _, err := s.loadDocument(countersFile, &counters); err != nil || counters == nil {
		return make(map[string]int64), nil
	}
	return counters, nil
}

func (s *FileStore) SaveCounters(counters map[string]int64) error {
	return s.replaceDocument(countersFile, counters)
}

// LoadSessions loads the session map. Sessions are recoverable state (users
// can log in again), so corruption degrades to empty.
func (s *FileStore) LoadSessions() (map[string]*model.Session, error) {
	sessions := make(map[string]*model.Session)
	if _, err := s.loadDocument(sessionsFile, &sessions); err != nil || sessions == nil {
		return make(map[string]*model.Session), nil
	}
	return sessions, nil
}

func (s *FileStore) SaveSessions(sessions map[string]*model.Session) error {
	return s.replaceDocument(sessionsFile, sessions)
}

// LoadOTPCodes loads the one-time-code map, degrading to empty on
// corruption for the same reason as sessions.
func (s *FileStore) LoadOTPCodes() (map[string]*model.OTPCode, error) {
	codes := make(map[string]*model.OTPCode)
	if _, err := s.loadDocument(otpFile, &codes); err != nil || codes == nil {
		return make(map[string]*model.OTPCode), nil
	}
	return codes, nil
}

func (s *FileStore) SaveOTPCodes(codes map[string]*model.OTPCode) error {
	return s.replaceDocument(otpFile, codes)
}
