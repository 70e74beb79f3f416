package benchmark

import "context"

// Listing is the content of every predefined registry.
type Listing struct {
	Datasets           []string `yaml:"datasets" json:"datasets"`
	Methods            []string `yaml:"methods" json:"methods"`
	UntrainableMethods []string `yaml:"untrainable_methods" json:"untrainable_methods"`
	Experiments        []string `yaml:"experiments" json:"experiments"`
	LandmarkProcesses  []string `yaml:"landmark_processes" json:"landmark_processes"`
}

// List reads every registry.
func (s *Local) List(ctx context.Context) (*Listing, error) {
	listing := &Listing{}
	targets := []struct {
		kind Kind
		dst  *[]string
	}{
		{KindDataset, &listing.Datasets},
		{KindMethod, &listing.Methods},
		{KindUntrainableMethod, &listing.UntrainableMethods},
		{KindExperiment, &listing.Experiments},
		{KindLandmarkProcess, &listing.LandmarkProcesses},
	}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, err := s.registry.List(t.kind)
		if err != nil {
			return nil, err
		}
		*t.dst = names
	}
	return listing, nil
}
