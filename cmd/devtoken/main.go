package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chapterhub.org/internal/auth"
)

func main() {
	log.SetFlags(0)
	var (
		secret  = flag.String("secret", os.Getenv("CHAPTERHUB_AUTH_SECRET"), "HS256 signing secret")
		issuer  = flag.String("issuer", envOr("CHAPTERHUB_AUTH_ISSUER", "chapterhub"), "Token issuer")
		subject = flag.String("sub", "", "Principal id (required)")
		roles   = flag.String("roles", "", "Comma separated role tags, e.g. admin")
		status  = flag.String("status", auth.StatusActive, "Principal status: active or suspended")
		ttl     = flag.Duration("ttl", time.Hour, "Token lifetime")
	)
	flag.Parse()

	if *subject == "" {
		log.Fatal("usage: devtoken -sub <principal-id> [-roles admin] [-status active] [-ttl 1h]")
	}
	verifier, err := auth.NewTokenVerifier(*secret, auth.WithIssuer(*issuer))
	if err != nil {
		log.Fatalf("devtoken: %v (set -secret or CHAPTERHUB_AUTH_SECRET)", err)
	}

	var tags []string
	if *roles != "" {
		tags = strings.Split(*roles, ",")
	}
	token, err := verifier.GenerateToken(*subject, tags, *status, *ttl)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	fmt.Println(token)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
