// Command registry_token mints a bearer token for a registry operator using
// the server's JWT secret. The operator id ends up in every audit field the
// operator's requests write.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/invoice_registry/internal/platform/config"
	"github.com/SscSPs/invoice_registry/internal/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	operator := flag.String("operator", "", "operator id stored as the token subject")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *operator == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	token, err := utils.IssueOperatorToken(*operator, cfg.JWTSecret, *ttl, time.Now())
	if err != nil {
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
