//go:build ignore

// generate_hash.go generates the bcrypt hash of the admin API key.
// Run: go run scripts/generate_hash.go your_key
//
// Put the result into .env as ADMIN_KEY_HASH.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/generate_hash.go <key>")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Hash generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Admin key hash (put into .env as ADMIN_KEY_HASH):")
	fmt.Println(string(hash))
}
