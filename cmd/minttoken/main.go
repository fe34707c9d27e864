// Command minttoken prints a signed access token for local testing.
//
//	minttoken -role STAFF
//	minttoken -role CUSTOMER -user 6f1c... -ttl 2h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/iliyamo/cineplex-booking/internal/middleware"
)

func main() {
	role := flag.String("role", middleware.RoleCustomer, "STAFF or CUSTOMER")
	user := flag.String("user", "", "user id (random when empty)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	r := strings.ToUpper(*role)
	if r != middleware.RoleStaff && r != middleware.RoleCustomer {
		log.Fatalf("unknown role %q", *role)
	}
	id := uuid.New()
	if *user != "" {
		var err error
		if id, err = uuid.Parse(*user); err != nil {
			log.Fatalf("invalid -user: %v", err)
		}
	}
	tok, err := middleware.IssueToken(secret, id, r, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stderr, "user %s role %s\n", id, r)
	fmt.Println(tok)
}
