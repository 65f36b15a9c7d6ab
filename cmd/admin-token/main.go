// Command admin-token prints an operator token for the admin endpoints,
// signed with ADMIN_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/josh-kwaku/eventledger/internal/auth"
)

func main() {
	operator := flag.String("operator", "", "operator name recorded in the token")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		slog.Error("ADMIN_JWT_SECRET is required")
		os.Exit(1)
	}

	token, err := auth.GenerateToken(*operator, auth.RoleAdmin, secret, *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
