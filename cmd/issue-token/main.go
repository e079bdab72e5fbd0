package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stemsi/exstem-lms/internal/service"
	"golang.org/x/term"
)

// issue-token signs a JWT for an identity managed by the upstream LMS.
// Useful for local development and smoke tests.
func main() {
	var (
		tokenType    string
		userID       int
		perms        string
		promptSecret bool
	)
	flag.StringVar(&tokenType, "type", "", "Token type: student, instructor or admin")
	flag.IntVar(&userID, "user", 0, "User ID the token is issued for")
	flag.StringVar(&perms, "perms", "", "Comma-separated permissions (defaults by type)")
	flag.BoolVar(&promptSecret, "prompt-secret", false, "Read the signing secret from the terminal instead of JWT_SECRET")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	if tokenType == "" {
		fmt.Print("Token type (student/instructor/admin): ")
		tokenType, _ = reader.ReadString('\n')
		tokenType = strings.TrimSpace(tokenType)
	}
	tt := service.TokenType(tokenType)
	switch tt {
	case service.TokenTypeStudent, service.TokenTypeInstructor, service.TokenTypeAdmin:
	default:
		fmt.Fprintln(os.Stderr, "Error: type must be student, instructor or admin")
		os.Exit(1)
	}

	if userID <= 0 {
		fmt.Print("User ID: ")
		raw, _ := reader.ReadString('\n')
		userID, err = strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || userID <= 0 {
			fmt.Fprintln(os.Stderr, "Error: user ID must be a positive number")
			os.Exit(1)
		}
	}

	if promptSecret {
		fmt.Print("JWT secret: ")
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error reading secret")
			os.Exit(1)
		}
		if len(secret) == 0 {
			fmt.Fprintln(os.Stderr, "Error: secret is required")
			os.Exit(1)
		}
		cfg.JWTSecret = string(secret)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	permissions := splitPermissions(perms)
	if permissions == nil {
		permissions = defaultPermissions(tt)
	}

	token, err := service.NewAuthService(cfg, nil).GenerateToken(tt, userID, permissions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func splitPermissions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultPermissions(tt service.TokenType) []string {
	var perms []model.Permission
	switch tt {
	case service.TokenTypeInstructor:
		perms = model.InstructorPermissions
	case service.TokenTypeAdmin:
		perms = model.AllPermissions
	default:
		return nil
	}
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
