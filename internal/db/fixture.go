package db

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/4xmen/chatview/internal/autoreply"
	"github.com/4xmen/chatview/internal/models"
	"github.com/4xmen/chatview/internal/schedule"
)

//go:embed seed.yaml
var defaultSeed []byte

type fixture struct {
	Accounts  []models.Account     `yaml:"accounts"`
	Chats     []fixtureChat        `yaml:"chats"`
	Scheduled []fixtureScheduled   `yaml:"scheduled"`
	Rules     []autoreply.Rule     `yaml:"rules"`
	Bot       *autoreply.BotConfig `yaml:"bot"`
}

type fixtureChat struct {
	models.Chat `yaml:",inline"`
	Messages    []fixtureMessage `yaml:"messages"`
}

// fixtureMessage carries either an absolute timestamp or an offset from
// load time, such as "-2h".
type fixtureMessage struct {
	models.Message `yaml:",inline"`
	Offset         string `yaml:"offset"`
}

type fixtureScheduled struct {
	schedule.Message `yaml:",inline"`
	Offset           string `yaml:"offset"`
}

func readFixture(path string) ([]byte, error) {
	if path == "" {
		return defaultSeed, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return data, nil
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// resolveTime turns an offset into an RFC 3339 timestamp relative to base.
// An empty offset keeps the absolute value.
func resolveTime(absolute, offset string, base time.Time) (string, error) {
	if offset == "" {
		return absolute, nil
	}
	d, err := time.ParseDuration(offset)
	if err != nil {
		return "", fmt.Errorf("invalid offset %q: %w", offset, err)
	}
	return formatTimestamp(base.Add(d)), nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
