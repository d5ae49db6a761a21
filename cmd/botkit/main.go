// Package main is the entry point for the botkit demo CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/en9inerd/botkit"
)

// Set by ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "botkit",
		Short:         "Telegram Bot API toolkit and demo bot",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to YAML configuration file")
	root.AddCommand(runCmd(), meCmd(), webhookCmd())
	return root
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads the config and the token shared by every command.
func setup(cmd *cobra.Command) (*fileConfig, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, "", err
	}
	tok, err := token()
	if err != nil {
		return nil, "", err
	}
	return cfg, tok, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the demo bot until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, tok, err := setup(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Verbose)

			store, err := cfg.openPersistence()
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("failed to close persistence", "error", err)
				}
			}()

			botCfg := cfg.botConfig(tok)
			botCfg.Logger = logger
			botCfg.Persistence = store

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			botCfg.Registerer = reg

			bot, err := botkit.New(botCfg)
			if err != nil {
				return err
			}
			if err := registerDemo(bot, cfg, logger); err != nil {
				return err
			}
			bot.OnReady(func(context.Context) {
				logger.Info("demo bot ready", "username", bot.Self().Username)
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bot.Run(ctx)
		},
	}
}

// newClient builds an API client for the one-shot commands.
func newClient(cmd *cobra.Command) (*botkit.Client, error) {
	cfg, tok, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	var opts []botkit.ClientOption
	if cfg.APIURL != "" {
		opts = append(opts, botkit.WithAPIURL(cfg.APIURL))
	}
	return botkit.NewClient(tok, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Print the bot's user (getMe)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			me, err := client.GetMe(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(me)
		},
	}
}

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the webhook registration",
	}

	set := &cobra.Command{
		Use:   "set <url>",
		Short: "Register a webhook URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			secret, _ := cmd.Flags().GetString("secret")
			drop, _ := cmd.Flags().GetBool("drop-pending")
			maxConns, _ := cmd.Flags().GetInt("max-connections")
			err = client.SetWebhook(cmd.Context(), &botkit.SetWebhookParams{
				URL:                args[0],
				SecretToken:        secret,
				DropPendingUpdates: drop,
				MaxConnections:     maxConns,
			})
			if err != nil {
				return err
			}
			fmt.Println("Webhook set:", args[0])
			return nil
		},
	}
	set.Flags().String("secret", "", "Secret token Telegram sends with every update")
	set.Flags().Bool("drop-pending", false, "Drop updates queued before the webhook was set")
	set.Flags().Int("max-connections", 0, "Maximum simultaneous connections (1-100)")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook and switch back to getUpdates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			drop, _ := cmd.Flags().GetBool("drop-pending")
			if err := client.DeleteWebhook(cmd.Context(), drop); err != nil {
				return err
			}
			fmt.Println("Webhook deleted")
			return nil
		},
	}
	del.Flags().Bool("drop-pending", false, "Drop pending updates")

	info := &cobra.Command{
		Use:   "info",
		Short: "Print the current webhook status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			wi, err := client.GetWebhookInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(wi)
		},
	}

	cmd.AddCommand(set, del, info)
	return cmd
}
