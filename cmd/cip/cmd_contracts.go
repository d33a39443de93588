package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/contractintel/cip-client/internal/domain"
)

var (
	uploadName string
	uploadType string
	uploadFile string
	outputPath string
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Manage contracts",
}

func init() {
	contractsUploadCmd.Flags().StringVar(&uploadName, "name", "", "contract name")
	contractsUploadCmd.Flags().StringVar(&uploadType, "type", "", "contract type: supplier, nda, or employment")
	contractsUploadCmd.Flags().StringVar(&uploadFile, "file", "", "path to the PDF document")

	contractsPDFCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (defaults to <id>.pdf)")
	contractsMDCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (defaults to <id>.md)")

	contractsCmd.AddCommand(
		contractsListCmd,
		contractsUploadCmd,
		contractsShowCmd,
		contractsFillCmd,
		contractsValidateCmd,
		contractsReportCmd,
		contractsPDFCmd,
		contractsMDCmd,
	)
}

// protected wraps a command body in the route guard: the body never runs
// until the profile resolves, and never runs when it fails.
func protected(cmd *cobra.Command, body func(ctx context.Context) error) error {
	return cli.ctrl.Guard(cmd.Context(), cli.queries.User,
		func(ctx context.Context, _ *domain.User) error {
			return body(ctx)
		})
}

func parseContractType(s string) (domain.ContractType, error) {
	switch strings.ToLower(s) {
	case "supplier", string(domain.ContractTypeSupplier):
		return domain.ContractTypeSupplier, nil
	case "nda", string(domain.ContractTypeNDA):
		return domain.ContractTypeNDA, nil
	case "employment", string(domain.ContractTypeEmployment):
		return domain.ContractTypeEmployment, nil
	default:
		return "", fmt.Errorf("unknown contract type %q (want supplier, nda, or employment)", s)
	}
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your contracts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			contracts, err := cli.queries.Contracts(ctx)
			if err != nil {
				return err
			}
			if len(contracts) == 0 {
				fmt.Println("No contracts.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE")
			for _, c := range contracts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ContractID, c.ContractName, c.ContractType)
			}
			return w.Flush()
		})
	},
}

var contractsUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a contract PDF",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			var ctype domain.ContractType
			if uploadType != "" {
				var err error
				ctype, err = parseContractType(uploadType)
				if err != nil {
					return err
				}
			}
			var reader io.Reader
			if uploadFile != "" {
				f, err := os.Open(uploadFile)
				if err != nil {
					return err
				}
				defer f.Close()
				reader = f
			}
			contract, err := cli.queries.UploadContract(ctx, uploadName, ctype, filepath.Base(uploadFile), reader)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %s (%s)\n", contract.ContractName, contract.ContractID)
			return nil
		})
	},
}

var contractsShowCmd = &cobra.Command{
	Use:   "show <contract-id>",
	Short: "Show a contract's extracted fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			contract, err := cli.queries.Contract(ctx, args[0])
			if err != nil {
				return err
			}
			printContract(contract)
			return nil
		})
	},
}

var contractsFillCmd = &cobra.Command{
	Use:   "fill <contract-id>",
	Short: "Run field extraction on an uploaded contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			contract, err := cli.queries.FillContract(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Extraction complete for %s.\n", contract.ContractName)
			printContract(contract)
			return nil
		})
	},
}

var contractsValidateCmd = &cobra.Command{
	Use:   "validate <contract-id>",
	Short: "Run validation and show the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			report, err := cli.queries.ValidateContract(ctx, args[0])
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		})
	},
}

var contractsReportCmd = &cobra.Command{
	Use:   "report <contract-id>",
	Short: "Show the last stored validation report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			report, err := cli.queries.ValidationReport(ctx, args[0])
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		})
	},
}

var contractsPDFCmd = &cobra.Command{
	Use:   "pdf <contract-id>",
	Short: "Download the original PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			data, err := cli.queries.ContractPDF(ctx, args[0])
			if err != nil {
				return err
			}
			path := outputPath
			if path == "" {
				path = args[0] + ".pdf"
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
			return nil
		})
	},
}

var contractsMDCmd = &cobra.Command{
	Use:   "md <contract-id>",
	Short: "Download the extracted markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			data, err := cli.queries.ContractMarkdown(ctx, args[0])
			if err != nil {
				return err
			}
			path := outputPath
			if path == "" {
				path = args[0] + ".md"
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
			return nil
		})
	},
}

func printContract(c *domain.Contract) {
	fmt.Printf("%s  %s (%s)\n", c.ContractID, c.ContractName, c.ContractType)
	if !c.Filled() {
		fmt.Println("Fields not yet extracted. Run `cip contracts fill`.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if c.EffectiveDate != "" {
		fmt.Fprintf(w, "Effective date\t%s\n", c.EffectiveDate)
	}
	if c.ExpirationDate != "" {
		fmt.Fprintf(w, "Expiration date\t%s\n", c.ExpirationDate)
	}
	if c.RenewalType != "" {
		fmt.Fprintf(w, "Renewal\t%s\n", c.RenewalType)
	}
	if c.ContractTerm > 0 {
		fmt.Fprintf(w, "Term (months)\t%d\n", c.ContractTerm)
	}
	w.Flush()
}

func printReport(r *domain.ValidationReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSCORE\tISSUES")
	printCheck(w, "Date verification", r.DateVerification)
	printCheck(w, "Missing clauses", r.MissingClausesCompliance)
	printCheck(w, "Spelling", r.SpellingMistakes)
	printCheck(w, "Ambiguities", r.LanguageAmbiguities)
	w.Flush()
}

func printCheck(w *tabwriter.Writer, label string, check domain.ValidationCheck) {
	fmt.Fprintf(w, "%s\t%d\t%s\n", label, check.Score, strings.Join(check.Errors, "; "))
}
