package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
	"gopkg.in/yaml.v3"
)

// fragmentSeed is the on-disk shape of one fragment in a seed file.
type fragmentSeed struct {
	Key       int64          `toml:"key" yaml:"key"`
	Text      string         `toml:"text" yaml:"text"`
	Source    string         `toml:"source" yaml:"source"`
	Topic     string         `toml:"topic" yaml:"topic"`
	RiskLevel string         `toml:"risk_level" yaml:"risk_level"`
	Extra     map[string]any `toml:"extra" yaml:"extra"`
}

// fragmentSeedFile is the top-level document of a seed file.
type fragmentSeedFile struct {
	Fragments []fragmentSeed `toml:"fragments" yaml:"fragments"`
}

// LoadFragmentsFromDir loads fragment seed files (*.toml, *.yaml, *.yml)
// from dirPath into the fragment pool. Existing fragments with the same key
// are overwritten; seeds with blank text or without an explicit positive key
// are skipped. Missing directory is not an error; a deployment may rely
// entirely on fragments ingested elsewhere.
func LoadFragmentsFromDir(ctx context.Context, storage *FragmentStorage, dirPath string, logger arbor.ILogger) (int, error) {
	if dirPath == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("dir", dirPath).Msg("Fragment seed directory does not exist, skipping")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read fragment seed directory %s: %w", dirPath, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".toml" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dirPath, entry.Name())
		count, err := loadFragmentFile(ctx, storage, path, ext, logger)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("Failed to load fragment seed file")
			continue
		}

		logger.Debug().Str("file", path).Int("fragments", count).Msg("Loaded fragment seed file")
		loaded += count
	}

	if loaded > 0 {
		logger.Info().Int("fragments", loaded).Str("dir", dirPath).Msg("Fragment pool seeded from files")
	}
	return loaded, nil
}

func loadFragmentFile(ctx context.Context, storage *FragmentStorage, path, ext string, logger arbor.ILogger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file fragmentSeedFile
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return 0, fmt.Errorf("failed to parse TOML %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return 0, fmt.Errorf("failed to parse YAML %s: %w", path, err)
		}
	}

	count := 0
	for _, seed := range file.Fragments {
		if strings.TrimSpace(seed.Text) == "" {
			continue
		}

		// Keys identify fragments across the pool; a seed without an
		// explicit positive key would land on key 0 and overwrite every
		// other keyless seed, so skip it.
		if seed.Key <= 0 {
			logger.Warn().
				Str("file", path).
				Int64("key", seed.Key).
				Msg("Fragment seed missing a positive key, skipping")
			continue
		}

		fragment := &models.Fragment{
			Key:  seed.Key,
			Text: seed.Text,
			Meta: models.FragmentMeta{
				Source:    seed.Source,
				Topic:     seed.Topic,
				RiskLevel: seed.RiskLevel,
				Extra:     seed.Extra,
			},
		}
		if err := storage.SaveFragment(ctx, fragment); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
