// Package lexicon — наборы игровых фраз по языкам для детекторов.
// Дефолтные наборы вшиты в бинарь; файлы в каталоге данных перекрывают их.
package lexicon

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

// FallbackLanguage используется, когда для запрошенного языка набора нет.
const FallbackLanguage = "en"

// Lexicon — фразы одного языка. Сравнение ведётся в верхнем регистре,
// нормализация выполняется при загрузке.
type Lexicon struct {
	Goal     []string `yaml:"goal"`
	Kickoff  []string `yaml:"kickoff"`
	MatchEnd []string `yaml:"match_end"`
}

// Empty сообщает, что в наборе нет ни одной фразы.
func (l Lexicon) Empty() bool {
	return len(l.Goal) == 0 && len(l.Kickoff) == 0 && len(l.MatchEnd) == 0
}

// Store — загруженные наборы фраз, только для чтения после Load.
type Store struct {
	byLang map[string]Lexicon
}

// Load читает вшитые наборы, затем перекрывает их файлами <lang>.yaml из dir
// (dir может быть пустым — тогда остаются только вшитые).
func Load(dir string) (*Store, error) {
	s := &Store{byLang: make(map[string]Lexicon)}

	if err := fs.WalkDir(embedded, "data", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := embedded.ReadFile(path)
		if err != nil {
			return err
		}
		return s.add(langFromFile(path), raw)
	}); err != nil {
		return nil, fmt.Errorf("embedded lexicons: %w", err)
	}

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("lexicon dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, err
			}
			if err := s.add(langFromFile(e.Name()), raw); err != nil {
				return nil, err
			}
		}
	}

	if _, ok := s.byLang[FallbackLanguage]; !ok {
		return nil, fmt.Errorf("lexicon for fallback language %q is missing", FallbackLanguage)
	}
	return s, nil
}

func (s *Store) add(lang string, raw []byte) error {
	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return fmt.Errorf("lexicon %s: %w", lang, err)
	}
	lex.Goal = normalizeAll(lex.Goal)
	lex.Kickoff = normalizeAll(lex.Kickoff)
	lex.MatchEnd = normalizeAll(lex.MatchEnd)
	s.byLang[strings.ToLower(lang)] = lex
	return nil
}

// Lookup возвращает набор фраз языка; при отсутствии — набор FallbackLanguage.
func (s *Store) Lookup(lang string) Lexicon {
	if lex, ok := s.byLang[strings.ToLower(lang)]; ok && !lex.Empty() {
		return lex
	}
	return s.byLang[FallbackLanguage]
}

// Languages возвращает коды загруженных языков.
func (s *Store) Languages() []string {
	langs := make([]string, 0, len(s.byLang))
	for l := range s.byLang {
		langs = append(langs, l)
	}
	return langs
}

func langFromFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToUpper(strings.Join(strings.Fields(p), " "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
