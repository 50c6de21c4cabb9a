// Package scrumteams loads the scrum-team metadata file that maps each
// scrum team to the space it belongs to.
package scrumteams

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// teamEntry is one team record of the metadata file.
type teamEntry struct {
	Space string `yaml:"space"`
}

// metadataFile is the on-disk document shape:
//
//	teams:
//	  team1a:
//	    space: retail
type metadataFile struct {
	Teams map[string]teamEntry `yaml:"teams"`
}

// Load reads the metadata file and returns the team-to-space mapping
// with base team names as keys. Teams without a space are kept with an
// empty value so callers can tell "listed without space" from "not
// listed".
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrum team metadata: %w", err)
	}

	var doc metadataFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scrum team metadata: %w", err)
	}

	spaces := make(map[string]string, len(doc.Teams))
	for team, entry := range doc.Teams {
		spaces[team] = entry.Space
	}
	return spaces, nil
}
