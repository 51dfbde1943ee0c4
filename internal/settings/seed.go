package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pose-browser/internal/geometry"
	"pose-browser/internal/logging"
)

// Seed is the optional YAML file applied at startup:
//
//	libraries:
//	  - /home/me/poses
//	images_enabled: true
//	thumb_size:
//	  width: 200
//	  height: 200
//	applier_enabled: false
type Seed struct {
	Libraries      []string `yaml:"libraries"`
	ImagesEnabled  *bool    `yaml:"images_enabled"`
	ApplierEnabled *bool    `yaml:"applier_enabled"`
	ThumbSize      *struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"thumb_size"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// ApplySeed writes the seed's values. Libraries are only added when no root
// is configured yet, so restarts do not duplicate them.
func (s *Store) ApplySeed(seed *Seed) error {
	if seed == nil {
		return nil
	}

	if len(seed.Libraries) > 0 && len(s.LibraryRoots()) == 0 {
		for _, root := range seed.Libraries {
			if err := s.AddLibraryRoot(root); err != nil {
				return err
			}
		}
		logging.Info("Seeded %d library roots", len(seed.Libraries))
	}

	if seed.ImagesEnabled != nil {
		if err := s.SetImagesEnabled(*seed.ImagesEnabled); err != nil {
			return err
		}
	}
	if seed.ApplierEnabled != nil {
		if err := s.SetApplierEnabled(*seed.ApplierEnabled); err != nil {
			return err
		}
	}
	if seed.ThumbSize != nil {
		size := geometry.Vec2{X: seed.ThumbSize.Width, Y: seed.ThumbSize.Height}
		if err := s.SetThumbSize(size); err != nil {
			return err
		}
	}
	return nil
}
