// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package biomarker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

type testStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
}

func newTestStore() *testStore {
	return &testStore{data: map[string][]byte{}}
}

func (s *testStore) GetUserMeta(_ context.Context, userID uuid.UUID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errStoreDown
	}
	return s.data[userID.String()+"/"+key], nil
}

func (s *testStore) SetUserMeta(_ context.Context, userID uuid.UUID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errStoreDown
	}
	s.data[userID.String()+"/"+key] = value
	return nil
}

func (s *testStore) put(t *testing.T, userID uuid.UUID, key string, value any) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	s.data[userID.String()+"/"+key] = raw
}

func f(v float64) *float64 {
	return &v
}
