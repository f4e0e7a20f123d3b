package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration (secrets redacted)",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := *cfg
		out.Market.Polygon.APIKey = redact(out.Market.Polygon.APIKey)
		out.Market.TwelveData.APIKey = redact(out.Market.TwelveData.APIKey)
		out.Telegram.BotToken = redact(out.Telegram.BotToken)

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return nil
	},
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
