// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockStorageResolver struct {
	mock.Mock
}

func (m *mockStorageResolver) Locate(ctx context.Context, id ParsedID) (ObjectRef, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ObjectRef), args.Error(1)
}

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) Sign(ctx context.Context, ref ObjectRef, ttl time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, ref, ttl)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type mockCutoutLocator struct {
	mock.Mock
}

func (m *mockCutoutLocator) URLForData(ctx context.Context, serviceType, label string) (string, error) {
	args := m.Called(ctx, serviceType, label)
	return args.String(0), args.Error(1)
}
