package model

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

func goodSignature() string {
	return base58.Encode(bytes.Repeat([]byte{0xff}, 64))
}

func TestValidateTxSignature(t *testing.T) {
	if err := ValidateTxSignature(goodSignature()); err != nil {
		t.Fatalf("expected valid signature to pass, got %v", err)
	}

	tests := []struct {
		name string
		sig  string
	}{
		{name: "too short", sig: "abc"},
		{name: "right length but invalid base58", sig: strings.Repeat("0", 88)},
		{name: "right length but decodes short", sig: strings.Repeat("1", 88)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateTxSignature(tt.sig); err == nil {
				t.Fatal("expected signature validation to fail")
			}
		})
	}
}

func TestExecutionRecordInvariants(t *testing.T) {
	sig := goodSignature()

	tests := []struct {
		name    string
		record  ExecutionRecord
		wantErr bool
	}{
		{
			name:   "success with signature",
			record: ExecutionRecord{Status: ExecutionStatusSuccess, TxSignature: &sig},
		},
		{
			name:    "success without signature",
			record:  ExecutionRecord{Status: ExecutionStatusSuccess},
			wantErr: true,
		},
		{
			name:   "unknown keeps its signature",
			record: ExecutionRecord{Status: ExecutionStatusUnknown, TxSignature: &sig},
		},
		{
			name:    "unknown without signature",
			record:  ExecutionRecord{Status: ExecutionStatusUnknown},
			wantErr: true,
		},
		{
			name:   "dry run without signature",
			record: ExecutionRecord{Status: ExecutionStatusDryRun},
		},
		{
			name:    "dry run with signature",
			record:  ExecutionRecord{Status: ExecutionStatusDryRun, TxSignature: &sig},
			wantErr: true,
		},
		{
			name:   "failed without signature",
			record: ExecutionRecord{Status: ExecutionStatusFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected invariant violation")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		ExecutionStatusPending: false,
		ExecutionStatusDryRun:  true,
		ExecutionStatusSuccess: true,
		ExecutionStatusFailed:  true,
		ExecutionStatusUnknown: true,
	} {
		r := &ExecutionRecord{Status: status}
		if got := r.Terminal(); got != want {
			t.Fatalf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}
