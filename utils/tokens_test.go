package utils

import "testing"

func TestGenerateSecureToken(t *testing.T) {
	plain, hashed, err := GenerateSecureToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(plain) != 64 {
		t.Errorf("plain token should be 32 random bytes hex-encoded, got len %d", len(plain))
	}
	if hashed == plain {
		t.Error("stored value must not equal the emailed value")
	}
	if HashToken(plain) != hashed {
		t.Error("hash of the plain token should match the stored value")
	}

	plain2, _, err := GenerateSecureToken()
	if err != nil {
		t.Fatal(err)
	}
	if plain2 == plain {
		t.Error("tokens should be random")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("hashing must be deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different tokens should hash differently")
	}
}
