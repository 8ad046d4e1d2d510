/*
Copyright 2024 Blnk Finance Authors.

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
	"context"

	"github.com/google/uuid"
	"github.com/gtechsltn/Bottleneck/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// User read methods

func (m *MockDataSource) GetActiveUsers(ctx context.Context, limit int) (model.Batch, error) {
	args := m.Called(ctx, limit)
	batch, _ := args.Get(0).(model.Batch)
	return batch, args.Error(1)
}

func (m *MockDataSource) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (model.Batch, error) {
	args := m.Called(ctx, ids)
	batch, _ := args.Get(0).(model.Batch)
	return batch, args.Error(1)
}

// Bulk exchange methods

func (m *MockDataSource) BulkInsert(ctx context.Context, batch model.Batch) (int64, error) {
	args := m.Called(ctx, batch)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) BulkUpdate(ctx context.Context, batch model.Batch) (int64, error) {
	args := m.Called(ctx, batch)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) Close() error {
	args := m.Called()
	return args.Error(0)
}
