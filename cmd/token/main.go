// Command token prints a signed bearer token for calling a registry running
// with auth.mode=jwt.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/auth"
	"github.com/Thaththathirian/lifeboat-college/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	subject := flag.String("sub", "registrar", "token subject")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret is not set")
	}

	token, err := auth.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, *subject, *email, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
