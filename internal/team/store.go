// Package team — справочник команд и сопоставление распознанных названий
// с вариациями выбранной команды.
package team

import (
	"errors"
	"fmt"
	"os"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed data/teams.yaml
var embeddedTeams []byte

var ErrTeamNotFound = errors.New("team not found")

// Team — выбранная пользователем команда с известными вариациями названия.
type Team struct {
	League      string   `yaml:"league"`
	Key         string   `yaml:"key"`
	DisplayName string   `yaml:"name"`
	Variations  []string `yaml:"variations"`
}

// Store — справочник команд, только для чтения после загрузки.
type Store struct {
	teams []Team
}

// LoadStore читает вшитый справочник и, если path непуст и файл существует,
// заменяет его содержимым файла.
func LoadStore(path string) (*Store, error) {
	raw := embeddedTeams
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			raw = b
		case errors.Is(err, os.ErrNotExist):
			// остаёмся на вшитом справочнике
		default:
			return nil, fmt.Errorf("teams file %s: %w", path, err)
		}
	}

	var doc struct {
		Teams []Team `yaml:"teams"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	return &Store{teams: doc.Teams}, nil
}

// Find ищет команду по лиге и ключу. Сравнение без учёта регистра.
func (s *Store) Find(league, key string) (*Team, error) {
	for i := range s.teams {
		t := &s.teams[i]
		if strings.EqualFold(t.League, league) && strings.EqualFold(t.Key, key) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrTeamNotFound, league, key)
}
