package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProfile reads a candidate profile from a yaml file. Unknown keys
// are rejected so a typoed field never silently drops data.
func LoadProfile(path string) (*ResumeProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	profile := &ResumeProfile{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	if profile.Name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	return profile, nil
}
