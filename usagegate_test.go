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
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/usagegate/usagegate/config"
	"github.com/usagegate/usagegate/model"
	"github.com/usagegate/usagegate/store"
)

// newTestService builds a UsageGate over a real file store in a temp
// directory, so tests exercise the same persistence path as production.
func newTestService(t *testing.T) (*UsageGate, store.DataSource) {
	t.Helper()
	config.MockConfig(&config.Configuration{})

	ds, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewUsageGate(ds, nil), ds
}

// fakeID produces a valid 20-character account identifier.
func fakeID() string {
	return gofakeit.LetterN(20)
}

// seedRecord writes a record straight into the store, bypassing the service.
func seedRecord(t *testing.T, ds store.DataSource, record *model.Record) {
	t.Helper()
	records, err := ds.LoadRecords()
	require.NoError(t, err)
	records = append(records, record)
	require.NoError(t, ds.SaveRecords(records))
}

func loadRecord(t *testing.T, ds store.DataSource, id string) *model.Record {
	t.Helper()
	records, err := ds.LoadRecords()
	require.NoError(t, err)
	for _, r := range records {
		if r.ID == id {
			return r
		}
	}
	return nil
}
