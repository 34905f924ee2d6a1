// Package main is a development utility for generating a random password with
// its bcrypt hash pre-computed. It prints the raw password, the hash, and a
// ready-to-run SQL UPDATE statement so developers can quickly seed a usable
// login on a local database without running the full registration flow. Do not
// use generated credentials in production — register through the API instead.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Generate random bytes
	randomBytes := make([]byte, 24)
	_, err := rand.Read(randomBytes)
	if err != nil {
		log.Fatal(err)
	}

	// Encode to base64
	password := base64.RawURLEncoding.EncodeToString(randomBytes)

	// Hash with bcrypt, same cost the server uses
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("==========================================================")
	fmt.Println("Dev Password Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nPassword: %s\n", password)
	fmt.Printf("\nHash: %s\n", string(hashBytes))
	fmt.Println("\n==========================================================")
	fmt.Println("SQL Update:")
	fmt.Println("==========================================================")
	fmt.Printf(`
UPDATE users
SET password_hash = '%s'
WHERE email = 'admin@dev.local';
`, string(hashBytes))
	fmt.Println("\n==========================================================")
	fmt.Printf("Login: POST /api/v1/auth/login {\"email\": \"admin@dev.local\", \"password\": \"%s\"}\n", password)
	fmt.Println("==========================================================")
}
