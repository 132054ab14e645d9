package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raviprakash-14/scrapify/internal/config"
	"github.com/raviprakash-14/scrapify/internal/storage"
	"github.com/raviprakash-14/scrapify/internal/valuation"
	"github.com/spf13/cobra"
)

// newEstimator is replaced in tests.
var newEstimator = func(ctx context.Context, apiKey, model string) (valuation.Estimator, error) {
	return valuation.NewGeminiEstimator(ctx, apiKey, model)
}

var labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))

type estimateOutput struct {
	*valuation.Result
	FormattedValue string  `json:"formattedValue"`
	Cached         bool    `json:"cached"`
	CostUSD        float64 `json:"costUsd"`
}

func estimateCmd() *cobra.Command {
	var (
		model    string
		useCache bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "estimate <image> <description>",
		Short: "Estimate the scrap value of an item from a photo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if model != "" {
				cfg.GeminiModel = model
			}

			photo, err := readPhoto(args[0])
			if err != nil {
				return err
			}
			req := valuation.Request{Photo: photo, Description: strings.TrimSpace(strings.Join(args[1:], " "))}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if cfg.EstimateTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.EstimateTimeout)
				defer cancel()
			}

			estimator, err := newEstimator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return err
			}
			if useCache {
				store, err := storage.Open(ctx, cfg.DatabaseURL, cfg.DBPath)
				if err != nil {
					return err
				}
				defer store.Close()
				estimator = valuation.NewCachedEstimator(estimator, store, cfg.CacheSalt)
			}

			estimation, err := estimator.Estimate(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(estimateOutput{
					Result:         estimation.Result,
					FormattedValue: estimation.Result.FormattedValue(),
					Cached:         estimation.Cached,
					CostUSD:        estimation.Usage.CostUSD,
				})
			}

			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Estimated Value:"), estimation.Result.FormattedValue())
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Material Composition:"), estimation.Result.MaterialComposition)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Condition:"), estimation.Result.Condition)
			if estimation.Cached {
				fmt.Fprintln(out, "(cached)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Gemini model (default from GEMINI_MODEL)")
	cmd.Flags().BoolVar(&useCache, "cache", false, "use the estimate cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
