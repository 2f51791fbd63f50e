package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"tombola/internal/platform/secrets"
)

// Keygen prints fresh values for ENCRYPTION_KEY and HASH_SALT. Run once per
// environment; rotating either value afterwards orphans the stored emails or
// their search hashes.
func main() {
	key, err := secrets.GenerateKey()
	if err != nil {
		log.Fatalf("generate encryption key: %v", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		log.Fatalf("generate hash salt: %v", err)
	}

	fmt.Printf("ENCRYPTION_KEY=%s\n", key)
	fmt.Printf("HASH_SALT=%s\n", hex.EncodeToString(salt))
}
