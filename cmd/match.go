package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/StevieDC/dd-voice/internal/config"
	"github.com/StevieDC/dd-voice/internal/keyword"
	"github.com/StevieDC/dd-voice/internal/match"
)

var matchKeywords string

var matchCmd = &cobra.Command{
	Use:     "match <transcript>",
	Short:   "Match one transcript against the keyword list and print the result",
	Example: "  dd-voice match --keywords 'Dragon|Goblin' 'i saw a drag on near the cave'",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchKeywords, "keywords", "", "inline keywords separated by | (default: configured keywords)")
}

var errNoMatch = errors.New("no keyword matched")

func runMatch(cmd *cobra.Command, args []string) error {
	var (
		set *keyword.Set
		err error
	)
	if matchKeywords != "" {
		set, err = keyword.Load(config.InlineKeywords(matchKeywords))
	} else {
		var cfg *config.Config
		if cfg, err = loadConfig(); err != nil {
			return err
		}
		set, err = cfg.KeywordSet()
	}
	if err != nil {
		return err
	}

	res := match.Match(strings.Join(args, " "), set)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Matched {
		return errNoMatch
	}
	return nil
}
