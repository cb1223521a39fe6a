package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/logging"
	"github.com/JonMunkholm/intake/internal/pricing"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "intake",
		Short: "Client intake normalization and pricing",
		Long: `intake reads client spreadsheets the way the upload service does.

It detects flat and relational templates, normalizes every client into an
entity, prices a selection against the fee schedule, and writes blank
templates.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(quoteCmd())
	rootCmd.AddCommand(templateCmd())
	return rootCmd
}

// importFile runs a local file through the same import pipeline as uploads.
func importFile(ctx context.Context, path string, maxSize int64) (*core.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	svc := core.NewService(core.ServiceConfig{MaxFileSize: maxSize, MaxConcurrent: 1}, nil, nil)
	return svc.Import(ctx, core.ImportRequest{FileName: filepath.Base(path), Data: data}, nil)
}

func parseCmd() *cobra.Command {
	var (
		asJSON  bool
		maxSize int64
	)
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Normalize a client file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := importFile(cmd.Context(), args[0], maxSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printImport(out, result)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().Int64Var(&maxSize, "max-size", core.DefaultMaxFileSize, "largest file accepted, in bytes")
	return cmd
}

func printImport(w io.Writer, r *core.ImportResult) error {
	st := r.Stats
	schema := string(r.Schema)
	if r.Variant != "" {
		schema += " " + r.Variant
	}
	fmt.Fprintf(w, "%s: %s schema, %d rows\n", r.FileName, schema, st.Rows)
	fmt.Fprintf(w, "imported %d, incomplete %d, malformed %d, orphans %d\n\n",
		st.Imported, st.Incomplete, st.Malformed, st.Orphans)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tLEGAL NAME\tTYPE\tSERVICE\tFILING\tOWNERS\tAPPLICANTS\tCOMPLETE")
	for _, e := range r.Entities {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
			e.SourceRow, e.LegalName, e.EntityType, e.ServiceType, e.FilingType,
			len(e.BeneficialOwners), len(e.CompanyApplicants), e.DataComplete)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Issues) > 0 {
		fmt.Fprintln(w, "\nissues:")
		for _, is := range r.Issues {
			fmt.Fprintf(w, "  %s line %d [%s] %s\n", is.Table, is.Line, is.Severity, is.Message)
		}
	}
	return nil
}

func quoteCmd() *cobra.Command {
	var (
		selected     []string
		scheduleFile string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "quote FILE",
		Short: "Price the clients of a file",
		Long: `Price the clients of a file against the fee schedule.

By default every entity is priced. --select limits the quote to entity IDs
or legal names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := pricing.LoadSchedule(scheduleFile)
			if err != nil {
				return err
			}
			result, err := importFile(cmd.Context(), args[0], core.DefaultMaxFileSize)
			if err != nil {
				return err
			}

			entities := result.Entities
			if cmd.Flags().Changed("select") {
				entities = selectEntities(entities, selected)
			}
			q, err := pricing.NewEngine(schedule).QuoteEntities(entities)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(q)
			}
			return printQuote(out, q)
		},
	}
	cmd.Flags().StringSliceVar(&selected, "select", nil, "entity IDs or legal names to price (comma separated)")
	cmd.Flags().StringVar(&scheduleFile, "schedule", "", "YAML fee schedule (default: built-in fees)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the quote as JSON")
	return cmd
}

// selectEntities matches keys against entity IDs first, then legal names.
func selectEntities(entities []*core.Entity, keys []string) []*core.Entity {
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		for _, e := range entities {
			if e.ID.String() == key || strings.EqualFold(e.LegalName, key) {
				ids = append(ids, e.ID.String())
			}
		}
	}
	return pricing.Select(entities, ids)
}

func printQuote(w io.Writer, q pricing.Quote) error {
	if q.IsEmpty() {
		_, err := fmt.Fprintln(w, "nothing selected: total $0.00")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SERVICE\tCOUNT\tUNIT\tAMOUNT\t")
	for _, s := range q.Subtotals {
		fmt.Fprintf(tw, "%s\t%d\t$%s\t$%s\t\n", s.ServiceType, s.Count, s.UnitPrice.StringFixed(2), s.Amount.StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t\t$%s\t\n", len(q.Lines), q.Total.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}
	if q.Tier != nil {
		_, err := fmt.Fprintf(w, "filing tier: %s\n", q.Tier.Name)
		return err
	}
	return nil
}

func templateCmd() *cobra.Command {
	var (
		variant string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a blank client template",
		Long: `Write a blank client template.

Variants v1 and v2 print the flat header row as CSV. The relational variant
is an .xlsx workbook and needs --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch strings.ToLower(variant) {
			case core.LayoutV1, core.LayoutV2:
				cw := csv.NewWriter(w)
				if err := cw.Write(core.FlatHeader(strings.ToLower(variant))); err != nil {
					return err
				}
				cw.Flush()
				return cw.Error()
			case "relational":
				if output == "" {
					return fmt.Errorf("the relational template is a workbook, use --output FILE.xlsx")
				}
				return core.WriteRelationalTemplate(w)
			default:
				return fmt.Errorf("unknown template variant %q", variant)
			}
		},
	}
	cmd.Flags().StringVar(&variant, "variant", core.LayoutV2, "template variant: v1, v2 or relational")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
