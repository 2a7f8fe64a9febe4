package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/insight-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(masked(*cfg))
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// masked returns a copy of c with every credential replaced.
func masked(c config.Config) config.Config {
	c.Search.Tavily.Key = mask(c.Search.Tavily.Key)
	c.Search.Jina.Key = mask(c.Search.Jina.Key)
	c.Search.Perplexity.Key = mask(c.Search.Perplexity.Key)
	c.LLM.OpenAI.Key = mask(c.LLM.OpenAI.Key)
	c.LLM.Anthropic.Key = mask(c.LLM.Anthropic.Key)
	c.Archive.S3.AccessKey = mask(c.Archive.S3.AccessKey)
	c.Archive.S3.SecretKey = mask(c.Archive.S3.SecretKey)
	return c
}

// mask keeps the last four characters of secrets long enough to identify.
func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
