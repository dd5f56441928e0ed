package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"github.com/jacksonlee411/payroll-approvals/internal/payrollstub"
	"github.com/jacksonlee411/payroll-approvals/internal/server"
)

// devtoken prints a dashboard bearer token for one of the stub's seeded
// company users, signed with JWT_SECRET.
func main() {
	_ = godotenv.Load()

	seedPath := flag.String("seed", getenvDefault("PAYROLL_STUB_SEED", "config/payrollstub/seed.yaml"), "payroll stub seed file")
	user := flag.String("user", "", "company user id from the seed")
	company := flag.String("company", getenvDefault("DEV_COMPANY_ID", "dev-company"), "company id claim")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	seed, err := payrollstub.LoadSeed(*seedPath)
	if err != nil {
		log.Fatal(err)
	}
	claims, err := claimsFor(seed, *user, *company, *ttl, time.Now())
	if err != nil {
		log.Fatal(err)
	}
	token, err := server.SignDashboardToken(os.Getenv("JWT_SECRET"), claims)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}

func claimsFor(seed payrollstub.Seed, userID string, companyID string, ttl time.Duration, now time.Time) (server.DashboardClaims, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return server.DashboardClaims{}, errors.New("devtoken: missing -user")
	}
	if strings.TrimSpace(companyID) == "" {
		return server.DashboardClaims{}, errors.New("devtoken: missing -company")
	}
	if ttl <= 0 {
		return server.DashboardClaims{}, errors.New("devtoken: -ttl must be positive")
	}
	for _, u := range seed.CompanyUsers {
		if u.ID != userID {
			continue
		}
		return server.DashboardClaims{
			CompanyUserID: u.ID,
			CompanyID:     strings.TrimSpace(companyID),
			Role:          strings.ToUpper(u.Role),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   u.ID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		}, nil
	}
	return server.DashboardClaims{}, fmt.Errorf("devtoken: unknown company user %q", userID)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
