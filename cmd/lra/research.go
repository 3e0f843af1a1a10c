package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/state"
)

var (
	researchJurisdiction  string
	researchEffectiveDate string
	researchVerbose       bool
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run one legal research query to completion",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResearch,
}

func init() {
	researchCmd.Flags().StringVar(&researchJurisdiction, "jurisdiction", "", "jurisdiction to focus the search on")
	researchCmd.Flags().StringVar(&researchEffectiveDate, "as-of", "", "research the law as of this date (YYYY-MM-DD)")
	researchCmd.Flags().BoolVarP(&researchVerbose, "verbose", "v", false, "print progress events")
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.shutdown()

	query := domain.ResearchQuery{
		ID:           uuid.NewString(),
		Text:         strings.Join(args, " "),
		Jurisdiction: researchJurisdiction,
		Timestamp:    time.Now(),
	}
	if researchEffectiveDate != "" {
		date, err := time.Parse("2006-01-02", researchEffectiveDate)
		if err != nil {
			return fmt.Errorf("invalid --as-of date: %w", err)
		}
		query.EffectiveDate = &date
	}

	var progress func(domain.ProgressEvent)
	if researchVerbose {
		progress = func(ev domain.ProgressEvent) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s: %s\n", ev.Percent, ev.Step, ev.Message)
		}
	}

	start := time.Now()
	sess := state.NewResearchState(query)
	finding, err := eng.orchestrator.Run(ctx, sess, progress)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	printFinding(finding, time.Since(start))
	return nil
}

func printFinding(finding *domain.ResearchFinding, elapsed time.Duration) {
	fmt.Println("=== Research Finding ===")
	fmt.Printf("Confidence: %s\n", finding.Confidence)
	if finding.RequiresReview {
		fmt.Println("NEEDS MANUAL REVIEW: validation found hard errors")
	}
	fmt.Printf("\n%s\n", finding.Answer)

	if len(finding.Authorities) > 0 {
		fmt.Println("\nAuthorities:")
		for _, auth := range finding.Authorities {
			mark := "unverified"
			if auth.Verified {
				mark = "verified"
			}
			if auth.CaseName != "" {
				fmt.Printf("  - %s, %s (%s)\n", auth.CaseName, auth.Citation, mark)
			} else {
				fmt.Printf("  - %s (%s)\n", auth.Citation, mark)
			}
		}
	}

	if len(finding.Validation.Errors) > 0 {
		fmt.Println("\nValidation errors:")
		for _, e := range finding.Validation.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if len(finding.Validation.Warnings) > 0 {
		fmt.Println("\nValidation warnings:")
		for _, w := range finding.Validation.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	if len(finding.Gaps) > 0 {
		fmt.Println("\nKnowledge gaps:")
		for _, gap := range finding.Gaps {
			fmt.Printf("  - [%s] %s\n", gap.Category, gap.Description)
		}
	}

	fmt.Printf("\nRounds: %d  Tokens: %d  Duration: %s\n", finding.Rounds, finding.TokensUsed, elapsed.Round(time.Millisecond))
}
