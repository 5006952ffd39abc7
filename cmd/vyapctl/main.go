// Command vyapctl inspects and edits onboarding state for support and QA.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/bootstrap"
	"vyap-onboarding-go/internal/config"
	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/pkg/flagstore"
)

func main() {
	b := &backends{open: openFromConfig}
	err := newRootCmd(b).Execute()
	b.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openFromConfig connects to the backends named by the environment.
func openFromConfig(ctx context.Context) (flagstore.FlagStore, db.ProfileRepository, func(), error) {
	appConfig, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := zap.NewNop()

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	flags, closeFlags, err := bootstrap.OpenFlags(initCtx, appConfig, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	stores, err := bootstrap.OpenStores(initCtx, appConfig, logger)
	if err != nil {
		_ = closeFlags()
		return nil, nil, nil, err
	}
	return flags, stores.Profiles, func() {
		_ = closeFlags()
		_ = stores.Close()
	}, nil
}
