package token

import (
	"encoding/json"
	"testing"

	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         Info
		wantName   string
		wantSymbol string
		wantErr    bool
	}{
		{name: "trims and uppercases", in: Info{Name: "  Gold Token ", Symbol: " gold "}, wantName: "Gold Token", wantSymbol: "GOLD"},
		{name: "composes", in: Info{Name: "Oro Café", Symbol: "oro"}, wantName: "Oro Café", wantSymbol: "ORO"},
		{name: "empty name", in: Info{Symbol: "G"}, wantErr: true},
		{name: "empty symbol", in: Info{Name: "Gold"}, wantErr: true},
		{name: "symbol with space", in: Info{Name: "Gold", Symbol: "GO LD"}, wantErr: true},
		{name: "symbol too long", in: Info{Name: "Gold", Symbol: "ABCDEFGHIJKLMNOPQ"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidArgument) {
					t.Fatalf("error = %v, want INVALID_ARGUMENT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.wantName || got.Symbol != tt.wantSymbol {
				t.Fatalf("got %q/%q, want %q/%q", got.Name, got.Symbol, tt.wantName, tt.wantSymbol)
			}
		})
	}
}

func TestApplyUpdatesMetadata(t *testing.T) {
	m := New(Info{Name: "Gold", Symbol: "GOLD", Decimals: 18})
	events := []struct {
		eventType event.Type
		payload   any
	}{
		{EventTypeRenamed, RenamedPayload{Name: "Gold II", Symbol: "GLD2", PreviousName: "Gold", PreviousSymbol: "GOLD"}},
		{EventTypeDocumentUpdated, DocumentPayload{Document: "ipfs://doc"}},
		{EventTypeContactUpdated, ContactPayload{Contact: "ops@example.com"}},
	}
	for _, e := range events {
		raw, _ := json.Marshal(e.payload)
		if err := m.Apply(event.Event{Type: e.eventType, PayloadJSON: raw}); err != nil {
			t.Fatalf("apply %s: %v", e.eventType, err)
		}
	}
	got := m.Info()
	want := Info{Name: "Gold II", Symbol: "GLD2", Decimals: 18, PublicDocument: "ipfs://doc", ContactInformation: "ops@example.com"}
	if got != want {
		t.Fatalf("info = %+v, want %+v", got, want)
	}
}

func TestValidateKeepsInputAsGiven(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		check   func(string) error
		wantErr bool
	}{
		{name: "lowercase symbol", value: "gold", check: ValidateSymbol},
		{name: "padded name", value: " Gold Reserve ", check: ValidateName},
		{name: "blank name", value: "   ", check: ValidateName, wantErr: true},
		{name: "blank symbol", value: "", check: ValidateSymbol, wantErr: true},
		{name: "long symbol", value: "ABCDEFGHIJKLMNOPQ", check: ValidateSymbol, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.value)
			if tt.wantErr != (err != nil) {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
