package main

import (
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jacksonlee411/payroll-approvals/internal/payrollstub"
)

func main() {
	_ = godotenv.Load()

	addr := getenvDefault("PAYROLL_STUB_ADDR", "127.0.0.1:8081")
	seedPath := getenvDefault("PAYROLL_STUB_SEED", "config/payrollstub/seed.yaml")

	seed, err := payrollstub.LoadSeed(seedPath)
	if err != nil {
		log.Fatalf("payrollstub: load seed %s: %v", seedPath, err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           payrollstub.NewHandler(payrollstub.NewStore(seed)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("payrollstub: listening on %s (seed %s)", addr, seedPath)
	if err := listenAndServe(srv); err != nil {
		log.Printf("payrollstub: server error: %v", err)
	}
}

func listenAndServe(srv *http.Server) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func getenvDefault(k string, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
