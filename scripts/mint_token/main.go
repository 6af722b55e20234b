// Command mint_token signs a bearer token for local testing of the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"storefront/internal/auth"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	id := flag.Int64("id", 1, "user id")
	email := flag.String("email", "admin@example.com", "user email")
	role := flag.String("role", auth.RoleAdmin, "user role (admin or user)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.Sign(secret, auth.Principal{ID: *id, Email: *email, Role: *role}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
