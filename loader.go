package psychics

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadPsychicConcept decodes a YAML psychic definition. Abilities are listed
// under the "abilities" mapping and keep their document order:
//
//	display-name: Pyrokinesis
//	mana: 100
//	mana-regen: 0.25
//	abilities:
//	  fireball:
//	    ability: .fireball
//	    cost: 20
//	    cooldown-ticks: 40
//	    casting-ticks: 10
//	    wand: blaze_rod
func LoadPsychicConcept(name string, data []byte, registry *AbilityRegistry) (*PsychicConcept, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("psychic %s: %w", name, err)
	}

	var cfg PsychicConfig
	var abilities []*AbilityConcept
	if len(root.Content) > 0 {
		body := root.Content[0]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("psychic %s: definition is not a mapping", name)
		}
		if err := body.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("psychic %s: %w", name, err)
		}

		var err error
		abilities, err = loadAbilityConcepts(name, mappingValue(body, "abilities"), registry)
		if err != nil {
			return nil, err
		}
	}
	return NewPsychicConcept(name, cfg, abilities...), nil
}

func loadAbilityConcepts(psychic string, node *yaml.Node, registry *AbilityRegistry) ([]*AbilityConcept, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("psychic %s: abilities is not a mapping", psychic)
	}

	concepts := make([]*AbilityConcept, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value

		var cfg AbilityConfig
		if err := node.Content[i+1].Decode(&cfg); err != nil {
			return nil, fmt.Errorf("psychic %s: ability %s: %w", psychic, name, err)
		}
		if cfg.Ability == "" {
			return nil, fmt.Errorf("psychic %s: ability %s: no ability key", psychic, name)
		}
		key, entry, err := registry.find(cfg.Ability)
		if err != nil {
			return nil, fmt.Errorf("psychic %s: ability %s: %w", psychic, name, err)
		}
		cfg.Ability = key

		concept, err := newAbilityConcept(name, cfg, entry.factory, entry.active)
		if err != nil {
			return nil, fmt.Errorf("psychic %s: %w", psychic, err)
		}
		concepts = append(concepts, concept)
	}
	return concepts, nil
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// LoadPsychicConcepts loads every *.yml definition at the root of fsys, keyed by
// lower-cased file name. A broken definition does not stop the others from
// loading; all failures are returned joined.
func LoadPsychicConcepts(fsys fs.FS, registry *AbilityRegistry) (map[string]*PsychicConcept, error) {
	files, err := fs.Glob(fsys, "*.yml")
	if err != nil {
		return nil, err
	}

	concepts := make(map[string]*PsychicConcept, len(files))
	var errs []error
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".yml")
		concept, err := LoadPsychicConcept(name, data, registry)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		concepts[strings.ToLower(name)] = concept
	}
	return concepts, errors.Join(errs...)
}
