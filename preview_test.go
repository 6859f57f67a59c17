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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usagegate/usagegate/config"
	"github.com/usagegate/usagegate/internal/apierror"
	"github.com/usagegate/usagegate/model"
)

// The first observation after a real increment initializes the accumulator
// to zero; every later observation adds one.
func TestPreviewAccumulating(t *testing.T) {
	svc, ds := newTestService(t)
	id := fakeID()
	seedRecord(t, ds, &model.Record{ID: id, Count: 3, Limit: 10, Active: true, CreatedAt: time.Now()})

	result, err := svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Data.Preview)
	assert.Equal(t, int64(3), result.Data.Projected)

	result, err = svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Data.Preview)
	assert.Equal(t, int64(4), result.Data.Projected)

	result, err = svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Data.Preview)

	// previewing consumes nothing
	assert.Equal(t, int64(3), loadRecord(t, ds, id).Count)
}

// While count is zero the accumulator stays pinned to zero.
func TestPreviewAccumulatingPinnedAtZeroCount(t *testing.T) {
	svc, ds := newTestService(t)
	id := fakeID()
	seedRecord(t, ds, &model.Record{ID: id, Count: 0, Limit: 10, Active: true, CreatedAt: time.Now()})

	for i := 0; i < 3; i++ {
		result, err := svc.PreviewUse(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Data.Preview)
		assert.Equal(t, int64(0), result.Data.Projected)
	}
}

// A real increment resets the accumulator, so the next observation starts
// over from zero.
func TestPreviewAccumulatingResetOnConsume(t *testing.T) {
	svc, ds := newTestService(t)
	id := fakeID()
	seedRecord(t, ds, &model.Record{ID: id, Count: 1, Limit: 10, Active: true, CreatedAt: time.Now()})

	_, err := svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)
	_, err = svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)

	_, err = svc.ConsumeUse(context.Background(), id)
	require.NoError(t, err)

	result, err := svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Data.Preview)
	assert.Equal(t, int64(2), result.Data.Projected)
}

func TestPreviewAccumulatingOverLimitMessage(t *testing.T) {
	svc, ds := newTestService(t)
	id := fakeID()
	seedRecord(t, ds, &model.Record{ID: id, Count: 5, Limit: 5, Active: true, CreatedAt: time.Now()})

	_, err := svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)

	result, err := svc.PreviewUse(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(6), result.Data.Projected)
	assert.Contains(t, result.Message, "exceed")
}

// One-shot previews persist nothing and always project count + 1.
func TestPreviewOneShot(t *testing.T) {
	svc, ds := newTestService(t)
	config.MockConfig(&config.Configuration{Preview: config.PreviewConfig{Mode: config.PreviewOneShot}})
	id := fakeID()
	seedRecord(t, ds, &model.Record{ID: id, Count: 3, Limit: 10, Active: true, CreatedAt: time.Now()})

	for i := 0; i < 3; i++ {
		result, err := svc.PreviewUse(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Data.Preview)
		assert.Equal(t, int64(4), result.Data.Projected)
	}

	counters, err := ds.LoadCounters()
	require.NoError(t, err)
	assert.Empty(t, counters)
}

func TestPreviewNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.PreviewUse(context.Background(), fakeID())
	assert.Error(t, err)
	assert.Equal(t, apierror.ErrNotFound, result.Data.ErrorCode)
}

func TestPreviewLocked(t *testing.T) {
	svc, ds := newTestService(t)
	id := fakeID()
	seedRecord(t, ds, &model.Record{ID: id, Count: 1, Limit: 10, Active: false, CreatedAt: time.Now()})

	result, err := svc.PreviewUse(context.Background(), id)
	assert.Error(t, err)
	assert.Equal(t, apierror.ErrAccountLocked, result.Data.ErrorCode)
}
