package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/db"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
	"github.com/mind-engage/mindengage-authoring/internal/gateway/httpgw"
	"github.com/mind-engage/mindengage-authoring/internal/gateway/sqlgw"
	"github.com/mind-engage/mindengage-authoring/internal/logger"
	syncx "github.com/mind-engage/mindengage-authoring/internal/sync"
	"github.com/mind-engage/mindengage-authoring/internal/wizard"
)

type importOptions struct {
	dbDriver   string
	dbDSN      string
	backendURL string
	token      string
	timeout    time.Duration
	noQuizzes  bool
	verbose    bool
}

func newImportCommand() *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import <document.json|->",
		Short: "Persist an extracted document: path, modules, then quizzes",
		Long: `Walks the authoring wizard without stopping for review. Each module is
split into slides and reassembled, then the path, modules and quizzes are
created in order. Failed modules are skipped, so their quizzes are reported
and skipped too.

Writes to the local database unless --backend-url is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var doc content.Document
			if err := json.Unmarshal(src, &doc); err != nil {
				return fmt.Errorf("parse document: %w", err)
			}

			log := logger.Nop()
			if opts.verbose {
				if log, err = logger.New("dev"); err != nil {
					return err
				}
				defer log.Sync()
			}

			cfg := wizard.Config{Logger: log}
			if opts.backendURL != "" {
				cfg.Gateway = httpgw.New(httpgw.Config{BaseURL: opts.backendURL, Token: opts.token, Timeout: opts.timeout})
			} else {
				conn, err := db.Open(cmd.Context(), db.Driver(opts.dbDriver), opts.dbDSN)
				if err != nil {
					return fmt.Errorf("open %s: %w", opts.dbDriver, err)
				}
				defer conn.Close()
				cfg.Gateway, cfg.Journal = sqlgw.New(conn), syncx.NewEventRepo(conn)
			}

			sum, err := runImport(cmd.Context(), cfg, doc, !opts.noQuizzes)
			sum.print(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&opts.dbDriver, "db-driver", string(db.DriverSQLite), "Database driver: sqlite or postgres")
	cmd.Flags().StringVar(&opts.dbDSN, "db-dsn", "", "Database DSN (driver default when empty)")
	cmd.Flags().StringVar(&opts.backendURL, "backend-url", "", "Learning backend base URL; skips the local database")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token for --backend-url")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout for --backend-url")
	cmd.Flags().BoolVar(&opts.noQuizzes, "no-quizzes", false, "Skip the quizzes step")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log each step")
	return cmd
}

type importSummary struct {
	WizardID string
	PathID   string
	Modules  int
	Saved    int
	Quizzes  int
	Created  int
	Failures []string
}

func (s importSummary) print(w io.Writer) {
	fmt.Fprintf(w, "wizard:  %s\n", s.WizardID)
	if s.PathID != "" {
		fmt.Fprintf(w, "path:    %s\n", s.PathID)
	}
	fmt.Fprintf(w, "modules: %d/%d saved\n", s.Saved, s.Modules)
	fmt.Fprintf(w, "quizzes: %d/%d saved\n", s.Created, s.Quizzes)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

// runImport drives one wizard to completion. Only a bad document or a failed
// path save aborts; every other failure is collected into the summary.
func runImport(ctx context.Context, cfg wizard.Config, doc content.Document, quizzes bool) (importSummary, error) {
	o := wizard.New(uuid.NewString(), cfg)
	sum := importSummary{WizardID: o.ID(), Modules: len(doc.Modules)}
	if err := o.Load(doc, quizzes); err != nil {
		return sum, err
	}
	if quizzes {
		sum.Quizzes = len(doc.Quizzes)
	}

	id, err := o.SavePath(ctx)
	if err != nil {
		return sum, fmt.Errorf("save path: %s", userMessage(err))
	}
	sum.PathID = id

	for step(o) == wizard.StepModules {
		i := o.Snapshot().State.CurrentModuleIndex
		if _, err := o.SaveModule(ctx); err != nil {
			sum.Failures = append(sum.Failures, fmt.Sprintf("module %d: %s", i, userMessage(err)))
			if err := o.SkipModule(ctx); err != nil {
				return sum, err
			}
			continue
		}
		sum.Saved++
	}

	for step(o) == wizard.StepQuizzes {
		i := o.Snapshot().State.CurrentQuizIndex
		out, err := o.SaveQuiz(ctx)
		var rerr *wizard.ReferenceError
		switch {
		case errors.As(err, &rerr):
			sum.Failures = append(sum.Failures, fmt.Sprintf("quiz %d: %s", i, rerr.Error()))
			continue
		case err != nil:
			sum.Failures = append(sum.Failures, fmt.Sprintf("quiz %d: %s", i, userMessage(err)))
			if err := o.SkipQuiz(ctx); err != nil {
				return sum, err
			}
			continue
		}
		sum.Created++
		for _, q := range out.FailedQuestions() {
			sum.Failures = append(sum.Failures, fmt.Sprintf("quiz %d question %d: %s", i, q.Index, gateway.Message(q.Err)))
		}
	}
	return sum, nil
}

func step(o *wizard.Orchestrator) wizard.Step { return o.Snapshot().State.Step }

func userMessage(err error) string {
	var ve *wizard.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return gateway.Message(err)
}
