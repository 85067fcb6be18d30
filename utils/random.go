package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateCode returns 2n uppercase hex characters from n random bytes.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateCredential returns an opaque ticket credential. 20 random
// bytes keep accidental collision out of reach; the tickets collection
// still enforces uniqueness with an index.
func GenerateCredential() (string, error) {
	code, err := GenerateCode(20)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TKT-%s", code), nil
}
