package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	maxClaims   int
	maxResults  int
	maxTrials   int
	yearsBack   int
	trialPhase  string
	trialStatus string
	llmProvider string
	llmModel    string
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <free-text question>",
	Short: "Generate MLR-ready claims for a drug from a free-text question",
	Long: `Query parses a free-text question about a drug and:
- Extracts the drug, claim type and indication
- Searches OpenFDA, PubMed/PMC and ClinicalTrials.gov concurrently
- Resolves full text for literature (claims need full text, not abstracts)
- Ranks articles by relevance and synthesizes claims with citations
- Validates every number and citation against the source text

Requires an LLM provider key in the environment (OPENAI_API_KEY or
ANTHROPIC_API_KEY). An NCBI_API_KEY raises the PubMed rate limit.

Example:
  substantia query "efficacy claims for Paxlovid in COVID-19"
  substantia query "Keytruda safety in NSCLC" --max-claims 4 --md report.md
  substantia query "jardiance dosing" --llm-provider anthropic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	// Output flags
	queryCmd.Flags().StringVar(&outJSON, "json", "claims.json", "output JSON path")
	queryCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Search flags
	queryCmd.Flags().IntVar(&maxClaims, "max-claims", 6, "maximum claims to generate")
	queryCmd.Flags().IntVar(&maxResults, "max-results", 20, "maximum PubMed articles to retrieve")
	queryCmd.Flags().IntVar(&maxTrials, "max-trials", 10, "maximum trial registrations to retrieve")
	queryCmd.Flags().IntVar(&yearsBack, "years-back", 5, "PubMed publication date window in years")
	queryCmd.Flags().StringVar(&trialPhase, "trial-phase", "PHASE3", "trial phase filter (empty disables)")
	queryCmd.Flags().StringVar(&trialStatus, "trial-status", "COMPLETED", "trial status filter (empty disables)")

	// HTTP flags
	queryCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall run timeout")
	queryCmd.Flags().StringVar(&userAgent, "ua", "Substantia/0.2 (+https://github.com/pharmaclaims/substantia)", "HTTP User-Agent")
	queryCmd.Flags().Int64Var(&maxBytes, "max-bytes", 8_000_000, "max response bytes to read")
	queryCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable request cache (force fresh fetches)")

	// LLM flags
	queryCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic)")
	queryCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Query: %s\n", query)
		fmt.Fprintf(os.Stderr, "Provider: %s\n", llmProvider)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", timeout)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	bundle, err := p.Run(ctx, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	renderer := pipeline.NewRenderer()
	if err := renderer.RenderJSON(bundle, outJSON); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(bundle, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outMD)
		}
	}

	renderer.RenderSummary(bundle, os.Stdout)
	return nil
}

// buildConfig layers flags and environment over the defaults
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.HTTPProxy = viper.GetString("http.http_proxy")
	cfg.HTTP.HTTPSProxy = viper.GetString("http.https_proxy")
	cfg.Cache.Enabled = !noCache

	cfg.Search.MaxClaims = maxClaims
	cfg.Search.MaxLiteratureResults = maxResults
	cfg.Search.MaxTrialResults = maxTrials
	cfg.Search.YearsBack = yearsBack
	cfg.Search.TrialPhase = trialPhase
	cfg.Search.TrialStatus = trialStatus

	// NCBI credentials are optional; without a key PubMed allows 3 req/s
	cfg.NCBI.APIKey = os.Getenv("NCBI_API_KEY")
	cfg.NCBI.Email = os.Getenv("NCBI_EMAIL")
	if cfg.NCBI.APIKey == "" {
		zap.L().Debug("no NCBI API key, using the unauthenticated rate limit")
	}

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel

	// Get API key from environment
	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (openai, anthropic)", llmProvider)
	}

	return cfg, nil
}
