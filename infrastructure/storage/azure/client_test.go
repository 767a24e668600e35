package azure

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

func TestNewClient_RequiresAccount(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient() error = nil, want error")
	}
}

func TestNewClient_SharedKey(t *testing.T) {
	t.Parallel()

	// base64 of "secret"
	client, err := NewClient(Config{AccountName: "charts", AccountKey: "c2VjcmV0"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"404", &azcore.ResponseError{StatusCode: http.StatusNotFound}, true},
		{"wrapped 404", fmt.Errorf("get: %w", &azcore.ResponseError{StatusCode: http.StatusNotFound}), true},
		{"403", &azcore.ResponseError{StatusCode: http.StatusForbidden}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Errorf("%s: isNotFound() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
