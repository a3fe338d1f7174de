package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mdhighlight/internal/highlight"
)

// Rules assembles the highlight density rules from the environment config,
// overridden by the YAML rules file when one is configured.
func (c Config) Rules() (highlight.Rules, error) {
	rules := highlight.Rules{
		MaxSpansPerParagraph: c.MaxSpansPerParagraph,
		MaxDensity:           c.MaxSpanDensity,
		MinSpanRunes:         c.MinSpanRunes,
		MaxSpanRunes:         c.MaxSpanRunes,
	}
	if c.RulesFile == "" {
		return rules, nil
	}
	data, err := os.ReadFile(c.RulesFile)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse rules file %s: %w", c.RulesFile, err)
	}
	return rules, nil
}
