// Command tokengen mints access tokens for scanning kiosks and admin users.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/config"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/jwt"
)

func main() {
	subject := flag.String("subject", "", "token subject, e.g. the kiosk name")
	role := flag.String("role", string(auth.RoleKiosk), "kiosk or admin")
	ttl := flag.String("ttl", "", "token lifetime, defaults to JWT_ACCESS_EXPIRATION_TIME")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	expiration := cfg.JWT.AccessExpiration
	if *ttl != "" {
		expiration = *ttl
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, expiration).GenerateAccessToken(*subject, auth.Role(*role))
	if err != nil {
		log.Fatal("Error generating token: ", err)
	}

	fmt.Println(token)
	log.Printf("role=%s subject=%s expires=%s", *role, *subject, time.Unix(expiresAt, 0).Format(time.RFC3339))
}
