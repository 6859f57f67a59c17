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
	"github.com/usagegate/usagegate/internal/lock"
	"github.com/usagegate/usagegate/store"
)

// UsageGate is the quota ledger service. All operations that observe and
// then mutate the record store or the pending-request index run inside the
// serialization gate, making the whole ledger single-writer at any instant.
type UsageGate struct {
	datasource store.DataSource
	gate       lock.Locker
}

// NewUsageGate initializes the ledger service over the given datasource.
// A nil gate falls back to the default in-process gate; tests inject their
// own to simulate contention.
func NewUsageGate(ds store.DataSource, gate lock.Locker) *UsageGate {
	if gate == nil {
		gate = lock.NewGate()
	}
	return &UsageGate{datasource: ds, gate: gate}
}
