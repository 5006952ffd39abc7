package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/pkg/flagstore"
)

type openFunc func(ctx context.Context) (flagstore.FlagStore, db.ProfileRepository, func(), error)

// backends opens the stores once, on first use by a subcommand.
type backends struct {
	open    openFunc
	flags   flagstore.FlagStore
	profile db.ProfileRepository
	closeFn func()
}

func (b *backends) ensure(ctx context.Context) error {
	if b.flags != nil {
		return nil
	}
	flags, profiles, closeFn, err := b.open(ctx)
	if err != nil {
		return err
	}
	b.flags, b.profile, b.closeFn = flags, profiles, closeFn
	return nil
}

func (b *backends) close() {
	if b.closeFn != nil {
		b.closeFn()
	}
}

func newRootCmd(b *backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vyapctl",
		Short:         "Inspect and edit Vyap onboarding state",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newPendingCmd(b), newSnoozeCmd(b), newProfileCmd(b))
	return cmd
}

func requireDevice(cmd *cobra.Command) (string, error) {
	device, _ := cmd.Flags().GetString("device")
	if device == "" {
		return "", errors.New("--device is required")
	}
	return device, nil
}

func newPendingCmd(b *backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Manage the one-shot signup flag of a device",
	}
	cmd.PersistentFlags().String("device", "", "Device ID (X-Device-ID)")

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Force the wizard on the next identity change of the device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			device, err := requireDevice(cmd)
			if err != nil {
				return err
			}
			if err := b.ensure(cmd.Context()); err != nil {
				return err
			}
			if err := b.flags.Set(cmd.Context(), core.PendingKey(device), "1", 0); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending set for device %s\n", device)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the signup flag of the device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			device, err := requireDevice(cmd)
			if err != nil {
				return err
			}
			if err := b.ensure(cmd.Context()); err != nil {
				return err
			}
			if err := b.flags.Clear(cmd.Context(), core.PendingKey(device)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending cleared for device %s\n", device)
			return nil
		},
	})
	return cmd
}

func newSnoozeCmd(b *backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snooze",
		Short: "Inspect or clear the \"Skip for now\" snooze of a device",
	}
	cmd.PersistentFlags().String("device", "", "Device ID (X-Device-ID)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the snooze expiry of the device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			device, err := requireDevice(cmd)
			if err != nil {
				return err
			}
			if err := b.ensure(cmd.Context()); err != nil {
				return err
			}
			raw, found, err := b.flags.Get(cmd.Context(), core.SnoozeKey(device))
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(cmd.OutOrStdout(), "device %s is not snoozed\n", device)
				return nil
			}
			until, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return fmt.Errorf("malformed snooze value %q: %w", raw, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "device %s snoozed until %s\n", device, until.UTC().Format(time.RFC3339))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the snooze so the wizard can show again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			device, err := requireDevice(cmd)
			if err != nil {
				return err
			}
			if err := b.ensure(cmd.Context()); err != nil {
				return err
			}
			if err := b.flags.Clear(cmd.Context(), core.SnoozeKey(device)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "snooze cleared for device %s\n", device)
			return nil
		},
	})
	return cmd
}

func newProfileCmd(b *backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Read user profiles",
	}

	var uid string
	status := &cobra.Command{
		Use:   "status",
		Short: "Print the onboarding document of a user as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uid == "" {
				return errors.New("--uid is required")
			}
			if err := b.ensure(cmd.Context()); err != nil {
				return err
			}
			profile, err := b.profile.FetchProfile(cmd.Context(), uid)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profile.Onboarding)
		},
	}
	status.Flags().StringVar(&uid, "uid", "", "Firebase Auth UID")
	cmd.AddCommand(status)
	return cmd
}
