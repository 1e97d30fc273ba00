// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
)

const testPassword = "correct-horse-battery"

func testContext() context.Context {
	return context.Background()
}

func mustCreateUser(t *testing.T, email, displayName string) *User {
	t.Helper()
	user, err := CreateUser(testContext(), CreateUserInput{
		Email:       email,
		DisplayName: displayName,
		Password:    testPassword,
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}
