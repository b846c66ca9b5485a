package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ritzzi23/clawfin/internal/api"
	"github.com/ritzzi23/clawfin/internal/bot"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "clawfin"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Multi-seller price negotiation bots for Discord",
		Long: `Clawfin runs a buyer bot that negotiates with several seller bots in a
Discord channel, then ranks the offers by what you actually pay after card rewards.

Run the buyer and sellers as separate processes against a shared Postgres
database, or everything in one process with "clawfin all".`,
		SilenceUsage: true,
	}

	var withAPI bool
	buyerCmd := &cobra.Command{
		Use:   "buyer",
		Short: "Run the buyer bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuyer(withAPI)
		},
	}
	buyerCmd.Flags().BoolVar(&withAPI, "api", false, "Also serve the HTTP API and /metrics")

	cmd.AddCommand(
		buyerCmd,
		&cobra.Command{
			Use:   "sellers",
			Short: "Run every seller bot in the roster",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSellers()
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Run the buyer and all sellers in one process",
			Long: `Runs the buyer, every roster seller and the session janitor in one process.
Without DATABASE_URL the sessions are kept in memory.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAll()
			},
		},
		&cobra.Command{
			Use:   "api",
			Short: "Serve the read-only HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAPI()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func runBuyer(withAPI bool) error {
	ctx := context.Background()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.cfg.RequireBuyer(); err != nil {
		return err
	}

	b, agent, err := a.startBuyer(ctx)
	if err != nil {
		return err
	}
	janitor := bot.NewJanitor(a.store, a.cfg.SessionTTL)
	janitor.Start()

	var server *api.API
	if withAPI {
		if server, err = a.startAPI(); err != nil {
			stopBot(b)
			janitor.Stop()
			return err
		}
	}

	waitForSignal()

	stopBot(b)
	agent.Wait()
	janitor.Stop()
	a.stopAPI(server)
	return nil
}

func runSellers() error {
	ctx := context.Background()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.cfg.RequireSellers(); err != nil {
		return err
	}

	bots, err := a.startSellers(ctx)
	if err != nil {
		return err
	}

	waitForSignal()

	stopAll(bots)
	return nil
}

func runAll() error {
	ctx := context.Background()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.cfg.RequireBuyer(); err != nil {
		return err
	}
	if err := a.cfg.RequireSellers(); err != nil {
		return err
	}

	sellers, err := a.startSellers(ctx)
	if err != nil {
		return err
	}
	b, agent, err := a.startBuyer(ctx)
	if err != nil {
		stopAll(sellers)
		return err
	}
	janitor := bot.NewJanitor(a.store, a.cfg.SessionTTL)
	janitor.Start()

	var server *api.API
	if a.database != nil && a.cfg.DiscordClientID != "" {
		if server, err = a.startAPI(); err != nil {
			log.Printf("API disabled: %v", err)
		}
	}

	waitForSignal()

	stopBot(b)
	stopAll(sellers)
	agent.Wait()
	janitor.Stop()
	a.stopAPI(server)
	return nil
}

func runAPI() error {
	ctx := context.Background()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	server, err := a.startAPI()
	if err != nil {
		return err
	}

	waitForSignal()

	a.stopAPI(server)
	return nil
}

func runMigrate() error {
	ctx := context.Background()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()
	log.Println("Migrations applied")
	return nil
}

func waitForSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
