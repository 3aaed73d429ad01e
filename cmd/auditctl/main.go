// Command auditctl is the CLI front end for the freight invoice audit
// engine: a thin argument-parsing and exit-code layer over internal/audit.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/joexgit2024/freightaudit/internal/audit"
	"github.com/joexgit2024/freightaudit/internal/config"
	"github.com/joexgit2024/freightaudit/internal/db"
	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
)

// Exit codes for the CLI wrapper contract: 0 success, 2 no invoices
// matched, 3 store unreachable, >=10 unexpected errors.
const (
	exitSuccess          = 0
	exitNoInvoicesMatched = 2
	exitStoreUnreachable = 3
	exitUnexpected       = 10
)

func main() {
	app := &cli.App{
		Name:  "auditctl",
		Usage: "audit freight invoices against negotiated rate cards and spot quotes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", EnvVars: []string{"CONFIG_PATH"}, Value: "config/config.yaml"},
		},
		Commands: []*cli.Command{
			auditInvoiceCommand(),
			runFullAuditCommand(),
			runBatchCommand(),
			deleteBatchCommand(),
			getBatchResultsCommand(),
			getBatchCommand(),
			invoiceStatusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if code, ok := err.(cli.ExitCoder); ok {
			log.Println(err)
			os.Exit(code.ExitCode())
		}
		log.Println(err)
		os.Exit(exitUnexpected)
	}
}

func auditInvoiceCommand() *cli.Command {
	return &cli.Command{
		Name:      "audit-invoice",
		Usage:     "audit a single invoice synchronously",
		ArgsUsage: "<invoice_no>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("audit-invoice requires exactly one invoice_no argument", exitUnexpected)
			}
			engine, cleanup, err := buildEngine(c.String("config"))
			if err != nil {
				return cli.Exit(err, exitStoreUnreachable)
			}
			defer cleanup()

			result, err := engine.AuditInvoice(context.Background(), c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("audit failed: %v", err), exitUnexpected)
			}
			printJSON(result)
			return nil
		},
	}
}

func runFullAuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "run-full-audit",
		Usage: "audit every year-to-date invoice",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Value: "full-audit"},
			&cli.BoolFlag{Name: "force-reaudit"},
		},
		Action: func(c *cli.Context) error {
			engine, cleanup, err := buildEngine(c.String("config"))
			if err != nil {
				return cli.Exit(err, exitStoreUnreachable)
			}
			defer cleanup()

			batch, err := engine.RunFullAudit(context.Background(), c.String("name"), c.Bool("force-reaudit"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("batch run failed: %v", err), exitUnexpected)
			}
			printJSON(batch)
			if batch.TotalInvoices == 0 {
				return cli.Exit("", exitNoInvoicesMatched)
			}
			return nil
		},
	}
}

func runBatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "run-batch",
		Usage:     "audit a specific set of invoices",
		ArgsUsage: "<invoice_no> [invoice_no...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Value: "batch"},
			&cli.BoolFlag{Name: "force-reaudit"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return cli.Exit("run-batch requires at least one invoice_no", exitNoInvoicesMatched)
			}
			engine, cleanup, err := buildEngine(c.String("config"))
			if err != nil {
				return cli.Exit(err, exitStoreUnreachable)
			}
			defer cleanup()

			batch, err := engine.RunBatch(context.Background(), c.String("name"), c.Args().Slice(), c.Bool("force-reaudit"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("batch run failed: %v", err), exitUnexpected)
			}
			printJSON(batch)
			return nil
		},
	}
}

func deleteBatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete-batch",
		Usage:     "delete a batch and all of its audit results",
		ArgsUsage: "<batch_id>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("delete-batch requires exactly one batch_id argument", exitUnexpected)
			}
			engine, cleanup, err := buildEngine(c.String("config"))
			if err != nil {
				return cli.Exit(err, exitStoreUnreachable)
			}
			defer cleanup()

			deleted, err := engine.DeleteBatch(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("delete failed: %v", err), exitUnexpected)
			}
			printJSON(map[string]bool{"deleted": deleted})
			return nil
		},
	}
}

func getBatchResultsCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-batch-results",
		Usage:     "page through a batch's audit results",
		ArgsUsage: "<batch_id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "filter by verdict (approved, review_required, rejected, error, no_rate_card)"},
			&cli.IntFlag{Name: "page", Value: 0},
			&cli.IntFlag{Name: "page-size", Value: 50},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("get-batch-results requires exactly one batch_id argument", exitUnexpected)
			}
			engine, cleanup, err := buildEngine(c.String("config"))
			if err != nil {
				return cli.Exit(err, exitStoreUnreachable)
			}
			defer cleanup()

			filter := models.ResultFilter{Status: models.Verdict(c.String("status"))}
			results, err := engine.GetBatchResults(c.Args().First(), filter, c.Int("page"), c.Int("page-size"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("lookup failed: %v", err), exitUnexpected)
			}
			if len(results) == 0 {
				printJSON(results)
				return cli.Exit("", exitNoInvoicesMatched)
			}
			printJSON(results)
			return nil
		},
	}
}

func getBatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-batch",
		Usage:     "fetch one batch run's summary",
		ArgsUsage: "<batch_id>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("get-batch requires exactly one batch_id argument", exitUnexpected)
			}
			engine, cleanup, err := buildEngine(c.String("config"))
			if err != nil {
				return cli.Exit(err, exitStoreUnreachable)
			}
			defer cleanup()

			batch, err := engine.GetBatch(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("lookup failed: %v", err), exitUnexpected)
			}
			if batch == nil {
				return cli.Exit("no such batch", exitNoInvoicesMatched)
			}
			printJSON(batch)
			return nil
		},
	}
}

func invoiceStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "invoice-status",
		Usage:     "show the most recent audit result for one invoice, across every batch",
		ArgsUsage: "<invoice_no>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("invoice-status requires exactly one invoice_no argument", exitUnexpected)
			}
			engine, cleanup, err := buildEngine(c.String("config"))
			if err != nil {
				return cli.Exit(err, exitStoreUnreachable)
			}
			defer cleanup()

			result, err := engine.GetInvoiceStatus(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("lookup failed: %v", err), exitUnexpected)
			}
			if result == nil {
				return cli.Exit("invoice has never been audited", exitNoInvoicesMatched)
			}
			printJSON(result)
			return nil
		},
	}
}

// buildEngine loads configuration and wires up the store, repositories,
// and engine. Redis is optional: its absence or unreachability only
// disables the active-version cache. Postgres is required.
func buildEngine(configPath string) (*audit.Engine, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.New(&cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var redisClient *redis.Client
	redisURL := os.Getenv("REDIS_URL")
	if redisURL != "" {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			log.Printf("failed to parse REDIS_URL: %v (continuing without the active-version cache)", parseErr)
		} else {
			redisClient = redis.NewClient(opt)
			if pingErr := redisClient.Ping(context.Background()).Err(); pingErr != nil {
				log.Printf("failed to connect to Redis: %v (continuing without the active-version cache)", pingErr)
				redisClient.Close()
				redisClient = nil
			}
		}
	}

	rateCards := models.NewRateCardRepository(database.DB)
	express := models.NewExpressRepository(database.DB)
	surcharges := models.NewSurchargeRepository(database.DB)
	quotes := models.NewQuoteRepository(database.DB)
	invoices := models.NewInvoiceRepository(database.DB)
	auditResults := models.NewAuditResultRepository(database.DB)
	batchRuns := models.NewBatchRunRepository(database.DB)

	store := ratestore.New(rateCards, express, surcharges, quotes, invoices, redisClient, &cfg.Cache)
	engine := audit.NewEngine(store, auditResults, batchRuns, cfg.Audit)

	cleanup := func() {
		if redisClient != nil {
			redisClient.Close()
		}
		database.Close()
	}
	return engine, cleanup, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("failed to encode output: %v", err)
	}
}
