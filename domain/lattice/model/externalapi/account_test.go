package externalapi

import (
	"strings"
	"testing"
)

func TestAccountStringRoundTrip(t *testing.T) {
	var keyBytes [AccountSize]byte
	for i := range keyBytes {
		keyBytes[i] = byte(i * 7)
	}
	account := NewAccountFromByteArray(&keyBytes)

	encoded := account.String()
	if !strings.HasPrefix(encoded, "orv_") {
		t.Fatalf("TestAccountStringRoundTrip: encoded account %s lacks the orv_ prefix", encoded)
	}
	parsed, err := ParseAccount(encoded)
	if err != nil {
		t.Fatalf("TestAccountStringRoundTrip: ParseAccount: %+v", err)
	}
	if parsed != account {
		t.Fatalf("TestAccountStringRoundTrip: expected %s but got %s", account, parsed)
	}
}

func TestParseAccountErrors(t *testing.T) {
	var keyBytes [AccountSize]byte
	keyBytes[0] = 1
	valid := NewAccountFromByteArray(&keyBytes).String()

	// Flipping the last character breaks the checksum or the length
	last := valid[len(valid)-1]
	replacement := byte('2')
	if last == replacement {
		replacement = '3'
	}
	corrupted := valid[:len(valid)-1] + string(replacement)

	tests := []struct {
		name    string
		encoded string
	}{
		{"missing prefix", strings.TrimPrefix(valid, "orv_")},
		{"not base58", "orv_0OIl"},
		{"too short", "orv_2"},
		{"bad checksum", corrupted},
	}
	for _, test := range tests {
		_, err := ParseAccount(test.encoded)
		if err == nil {
			t.Fatalf("TestParseAccountErrors: %s: expected an error", test.name)
		}
	}
}

func TestHashOrdering(t *testing.T) {
	low, err := NewDomainHashFromString("00000000000000000000000000000000000000000000000000000000000000ff")
	if err != nil {
		t.Fatalf("TestHashOrdering: %+v", err)
	}
	high, err := NewDomainHashFromString("0100000000000000000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("TestHashOrdering: %+v", err)
	}
	if !low.Less(high) || high.Less(low) || low.Less(low) {
		t.Fatalf("TestHashOrdering: hashes are not ordered bytewise")
	}
	if !ZeroHash.IsZero() || low.IsZero() {
		t.Fatalf("TestHashOrdering: IsZero is wrong")
	}
	if AccountFromHash(high).AsHash() != high {
		t.Fatalf("TestHashOrdering: account and hash reinterpretation is not symmetric")
	}
}
