package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ssot/internal/edit"
	"ssot/internal/model"
)

// tablesFile is the on-disk shape of --tables:
//
//	tables:
//	  - resource: targeting
//	    facets:
//	      - {name: Agency, column: AGENCY_NAME}
//	    governed:
//	      RADIA_OR_PRISMA_PACKAGE_NAME:
//	        scope: BY_KEY
//	        keys: [RADIA_OR_PRISMA_PACKAGE_NAME]
//	        readOnly: [RADIA_OR_PRISMA_PACKAGE_NAME]
//	        fields: [RADIA_OR_PRISMA_PACKAGE_NAME, TACTIC]
type tablesFile struct {
	Tables []edit.Family `yaml:"tables"`
}

// LoadFamilies returns the built-in families with any table listed in path
// replacing its default. An empty path yields the defaults.
func LoadFamilies(path string) (map[model.ResourceType]edit.Family, error) {
	fams := edit.DefaultFamilies()
	if path == "" {
		return fams, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tables file: %w", err)
	}
	overrides, err := ParseFamilies(b)
	if err != nil {
		return nil, fmt.Errorf("tables file %s: %w", path, err)
	}
	for _, f := range overrides {
		fams[f.Resource] = f
	}
	return fams, nil
}

// ParseFamilies decodes and validates a tables document. Unknown keys are
// rejected.
func ParseFamilies(b []byte) ([]edit.Family, error) {
	var tf tablesFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, err
	}
	seen := map[model.ResourceType]bool{}
	for i, f := range tf.Tables {
		rt, err := model.ParseResource(string(f.Resource))
		if err != nil {
			return nil, err
		}
		f.Resource = rt
		if seen[rt] {
			return nil, fmt.Errorf("table %s listed twice", rt)
		}
		seen[rt] = true
		if err := f.Validate(); err != nil {
			return nil, err
		}
		tf.Tables[i] = f
	}
	return tf.Tables, nil
}
