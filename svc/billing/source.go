package billing

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type memorySource struct {
	plans []Plan
}

// NewMemorySource serves a copy of plans.
func NewMemorySource(plans ...Plan) PlansSource {
	cp := make([]Plan, 0, len(plans))
	for _, p := range plans {
		cp = append(cp, p.clone())
	}
	return &memorySource{plans: cp}
}

func (s *memorySource) Load(context.Context) ([]Plan, error) {
	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.clone())
	}
	return out, nil
}

type fileSource struct {
	path string
}

// NewFileSource reads plans from a YAML document of the form
//
//	plans:
//	  - code: starter
//	    tier: starter
//	    price: {amount: 900, currency: USD}
//	    price_id: pri_01h...
//	    limits: {requests_per_day: 1000}
func NewFileSource(path string) PlansSource {
	return &fileSource{path: path}
}

func (s *fileSource) Load(context.Context) ([]Plan, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plans file %s: %w", s.path, err)
	}
	return doc.Plans, nil
}
