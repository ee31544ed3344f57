// Package main is a development utility for generating a JWT signing secret.
// It prints a 32-byte hex secret ready to export as JWT_SECRET so developers
// can run the server in production mode locally without reaching for openssl.
// Do not reuse generated secrets across environments.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

func main() {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		log.Fatal(err)
	}

	secret := hex.EncodeToString(randomBytes)

	fmt.Println("==========================================================")
	fmt.Println("JWT Secret Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nexport JWT_SECRET=%s\n\n", secret)
	fmt.Println("==========================================================")
}
