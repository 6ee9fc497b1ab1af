package main

import (
	"fmt"
	"os"

	"evote/pkg/passhash"
)

// Generates an argon2id hash for the staff roster (.env ADMIN_USERS /
// EC_OFFICIAL_USERS / POLLING_AGENT_USERS entries or the STAFF_USERS_FILE).
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./cmd/staffhash <password>")
		os.Exit(2)
	}
	hash, err := passhash.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
