// Command token issues an operator token signed with LEADS_JWT_SECRET.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/config"
	"github.com/xavierca1/beauty-leads/internal/infra/auth"
	"github.com/xavierca1/beauty-leads/internal/logger"
)

func main() {
	username := flag.String("user", "", "operator username")
	name := flag.String("name", "", "display name")
	flag.Parse()

	cfg, err := config.LoadAuth()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	token, err := issue(auth.New(cfg.JWTSecret, cfg.JWTTTL), *username, *name)
	if err != nil {
		log.Error("issue token failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(token)
}

func issue(svc *auth.Service, username, name string) (string, error) {
	if username == "" {
		return "", errors.New("-user is required")
	}
	if name == "" {
		name = username
	}
	return svc.GenerateToken(auth.User{Username: username, Name: name})
}
