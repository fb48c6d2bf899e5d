// SPDX-License-Identifier: AGPL-3.0-only
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("table", "orders")
	expectedMsg := "resource not found: table with ID orders"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !Is(err, KindNotFound) {
		t.Errorf("Expected KindNotFound, got %v", KindOf(err))
	}
}

func TestAlreadyExists(t *testing.T) {
	err := AlreadyExists("nonce", "abc")
	expectedMsg := "resource already exists: nonce with ID abc"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
}

func TestInvalidInput(t *testing.T) {
	reason := "missing required field"
	err := InvalidInput(reason)
	expectedMsg := "invalid input: " + reason
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
}

func TestInternal(t *testing.T) {
	originalErr := fmt.Errorf("database connection failed")
	err := Internal(originalErr)
	expectedMsg := "internal error: database connection failed"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !stderrors.Is(err, originalErr) {
		t.Error("Expected Internal to wrap the original error")
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("query users: %w", InvalidInput("unknown column"))
	if KindOf(err) != KindInvalidInput {
		t.Errorf("Expected KindInvalidInput through wrapping, got %v", KindOf(err))
	}
	if KindOf(fmt.Errorf("plain")) != KindUnknown {
		t.Error("Expected KindUnknown for unclassified error")
	}
	if Is(nil, KindNotFound) {
		t.Error("nil must not match any kind")
	}
}
