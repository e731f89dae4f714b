package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed leagues.yaml
var leaguesYAML []byte

//go:embed levels.yaml
var levelsYAML []byte

func loadLeagues() []League {
	var out []League
	if err := yaml.Unmarshal(leaguesYAML, &out); err != nil {
		panic(fmt.Sprintf("config: bad leagues.yaml: %v", err))
	}
	return out
}

func loadLevels() []LevelStep {
	var out []LevelStep
	if err := yaml.Unmarshal(levelsYAML, &out); err != nil {
		panic(fmt.Sprintf("config: bad levels.yaml: %v", err))
	}
	return out
}
