package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/challenge"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/config"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a challenge document and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		source, _ := cmd.Flags().GetString("source")
		topic, _ := cmd.Flags().GetString("topic")
		company, _ := cmd.Flags().GetString("company")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		dataset, _ := cmd.Flags().GetString("dataset")
		stage, _ := cmd.Flags().GetString("stage")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cfg.LLM.HasCredential() {
			return fmt.Errorf("no API key configured for provider %q", cfg.LLM.Provider)
		}

		params := challenge.Params{
			Mode:       challenge.Mode(mode),
			Source:     challenge.Source(source),
			Topic:      topic,
			Company:    company,
			Difficulty: challenge.Difficulty(difficulty),
			Dataset:    dataset,
			Stage:      stage,
		}
		if err := params.Validate(); err != nil {
			return err
		}

		purpose := "sql-challenge"
		if params.Mode == challenge.ModePython {
			purpose = "python-challenge"
		}
		ctx := llm.WithPurpose(context.Background(), purpose)

		// One-shot generation; no event store involved.
		provider, err := llm.NewProvider(ctx, cfg.LLM, nil)
		if err != nil {
			return err
		}

		ch, err := challenge.New(provider, challenge.DefaultConfig()).Generate(ctx, params)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ch)
	},
}

func init() {
	generateCmd.Flags().String("mode", "sql", `Challenge mode: "sql" or "python"`)
	generateCmd.Flags().String("source", "manual", `SQL topic source: "manual" or "company"`)
	generateCmd.Flags().String("topic", "", "SQL topic for manual generation, e.g. \"window functions\"")
	generateCmd.Flags().String("company", "", "Company whose interview style to imitate")
	generateCmd.Flags().String("difficulty", "", "Difficulty: Easy, Medium or Hard (empty = mixed)")
	generateCmd.Flags().String("dataset", "", "Dataset name for the Python mode, e.g. \"titanic\"")
	generateCmd.Flags().String("stage", "", "Interview stage for the Python mode, e.g. \"data cleaning\"")
}
