package auth

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("password123", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := ComparePassword(hash, "password123"); err != nil {
		t.Fatalf("compare with correct password: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("compare with wrong password must fail")
	}
}
