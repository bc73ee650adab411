package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/logger"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
)

// issue-token signs an access token with the configured secret, for local
// development against the WebSocket and teacher endpoints.
func main() {
	var ttl time.Duration
	flag.DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	authService := service.NewAuthService(cfg.JWTSecret)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Issue Development Token ===")

	fmt.Print("Enter User ID: ")
	userID, _ := reader.ReadString('\n')
	userID = strings.TrimSpace(userID)
	if userID == "" {
		fmt.Println("Error: User ID is required")
		return
	}

	fmt.Print("Enter Role (student/teacher/admin, default student): ")
	roleStr, _ := reader.ReadString('\n')
	role := service.Role(strings.ToLower(strings.TrimSpace(roleStr)))
	if role == "" {
		role = service.RoleStudent
	}
	switch role {
	case service.RoleStudent, service.RoleTeacher, service.RoleAdmin:
	default:
		fmt.Printf("Error: unknown role %q\n", role)
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	token, err := authService.IssueToken(userID, role, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	fmt.Printf("\nToken for %s (%s), valid for %s:\n%s\n", userID, role, ttl, token)
}
