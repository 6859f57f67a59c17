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

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{name: "plain number", in: `200000`, want: 200000},
		{name: "thousands separated string", in: `"200.000"`, want: 200000},
		{name: "decimal comma", in: `"200.000,50"`, want: 200000.50},
		{name: "plain string", in: `"5000"`, want: 5000},
		{name: "empty string", in: `""`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Price
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.Equal(t, tt.want, float64(p))
		})
	}
}

func TestPriceUnmarshalJSONInvalid(t *testing.T) {
	var p Price
	assert.Error(t, json.Unmarshal([]byte(`"not a price"`), &p))
}

func TestValidateAndAddDefaults(t *testing.T) {
	cnf := &Configuration{}
	require.NoError(t, cnf.validateAndAddDefaults())

	assert.Equal(t, "Usagegate Server", cnf.ProjectName)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, "./db", cnf.Store.Dir)
	assert.Equal(t, PreviewAccumulating, cnf.Preview.Mode)
	assert.Equal(t, 48, cnf.Session.TTLHours)
}

func TestValidateRejectsUnknownPreviewMode(t *testing.T) {
	cnf := &Configuration{Preview: PreviewConfig{Mode: "guesswork"}}
	assert.Error(t, cnf.validateAndAddDefaults())
}

func TestValidateRejectsNegativePricing(t *testing.T) {
	cnf := &Configuration{Pricing: PricingConfig{UnitPrice: -1}}
	assert.Error(t, cnf.validateAndAddDefaults())
}

func TestValidateRateLimitDefaults(t *testing.T) {
	rps := 10.0
	cnf := &Configuration{RateLimit: RateLimitConfig{RequestsPerSecond: &rps}}
	require.NoError(t, cnf.validateAndAddDefaults())

	require.NotNil(t, cnf.RateLimit.Burst)
	assert.Equal(t, 20, *cnf.RateLimit.Burst)
	require.NotNil(t, cnf.RateLimit.CleanupIntervalSec)
}

func TestInitConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "usagegate.json")
	content := `{
		"project_name": "quota test",
		"server": {"port": "6200"},
		"pricing": {"unit_price": "200.000", "batch_size": 100},
		"preview": {"mode": "one_shot"}
	}`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	require.NoError(t, InitConfig(file))
	cnf, err := Fetch()
	require.NoError(t, err)

	assert.Equal(t, "quota test", cnf.ProjectName)
	assert.Equal(t, "6200", cnf.Server.Port)
	assert.Equal(t, 200000.0, float64(cnf.Pricing.UnitPrice))
	assert.Equal(t, 100.0, cnf.Pricing.BatchSize)
	assert.Equal(t, PreviewOneShot, cnf.Preview.Mode)
}

func TestInitConfigMissingFileUsesDefaults(t *testing.T) {
	require.NoError(t, InitConfig(filepath.Join(t.TempDir(), "absent.json")))

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
}

func TestMockConfigAppliesDefaults(t *testing.T) {
	MockConfig(&Configuration{})

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, PreviewAccumulating, cnf.Preview.Mode)
}
