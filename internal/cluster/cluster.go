// Package cluster maps groups of subject units to scoring-unit selections
// and weights, for cluster-conditioned optimization runs.
package cluster

import (
	"encoding/json"
	"os"
	"sort"

	"oneiros/internal/model"
	"oneiros/internal/scoring"
)

// Cluster is a group of unit indices into one layer's flattened activation
// space.
type Cluster struct {
	Units []int `json:"units"`
}

// ScoringUnits selects the cluster's units with uniform reduction.
func (c Cluster) ScoringUnits() scoring.UnitSet {
	return scoring.UnitList(c.Units...)
}

// UniformWeights selects the cluster's units each weighted 1/len, so a
// cluster contributes the same total mass regardless of its size.
func (c Cluster) UniformWeights() (scoring.UnitSet, error) {
	if len(c.Units) == 0 {
		return scoring.UnitSet{}, model.Configf("cluster has no units")
	}
	weights := make([]float64, len(c.Units))
	for i := range weights {
		weights[i] = 1 / float64(len(c.Units))
	}
	return c.ScoringUnits().Weighted(weights)
}

// Clusters is an ordered cluster collection.
type Clusters []Cluster

// FromLabeling groups unit indices by their cluster label. Labels must be
// non-negative; label k populates cluster k.
func FromLabeling(labeling []int) (Clusters, error) {
	if len(labeling) == 0 {
		return nil, model.Configf("labeling must not be empty")
	}
	max := 0
	for unit, label := range labeling {
		if label < 0 {
			return nil, model.Configf("unit %d has negative cluster label %d", unit, label)
		}
		if label > max {
			max = label
		}
	}
	out := make(Clusters, max+1)
	for unit, label := range labeling {
		out[label].Units = append(out[label].Units, unit)
	}
	for i := range out {
		if len(out[i].Units) == 0 {
			return nil, model.Configf("cluster %d has no units", i)
		}
	}
	return out, nil
}

// Labeling inverts FromLabeling: each unit gets its cluster's index.
func (cs Clusters) Labeling() ([]int, error) {
	labeling := make([]int, cs.UnitCount())
	for i := range labeling {
		labeling[i] = -1
	}
	for idx, cluster := range cs {
		for _, unit := range cluster.Units {
			if unit < 0 || unit >= len(labeling) {
				return nil, model.Shapef("unit %d out of bounds for %d total units", unit, len(labeling))
			}
			if labeling[unit] != -1 {
				return nil, model.Shapef("unit %d belongs to clusters %d and %d", unit, labeling[unit], idx)
			}
			labeling[unit] = idx
		}
	}
	return labeling, nil
}

// UnitCount is the total number of units across all clusters.
func (cs Clusters) UnitCount() int {
	total := 0
	for _, cluster := range cs {
		total += len(cluster.Units)
	}
	return total
}

// Counts maps cluster cardinality to the number of clusters of that size.
func (cs Clusters) Counts() map[int]int {
	counts := make(map[int]int, len(cs))
	for _, cluster := range cs {
		counts[len(cluster.Units)]++
	}
	return counts
}

// Targets builds a scorer target mapping that conditions the given layer on
// one selected cluster, uniformly weighted.
func (cs Clusters) Targets(layer string, idx int) (map[string]scoring.UnitSet, error) {
	if idx < 0 || idx >= len(cs) {
		return nil, model.Configf("cluster index %d out of range [0, %d)", idx, len(cs))
	}
	units, err := cs[idx].UniformWeights()
	if err != nil {
		return nil, err
	}
	return map[string]scoring.UnitSet{layer: units}, nil
}

type clustersFile struct {
	Clusters []Cluster `json:"clusters"`
}

// Save dumps the collection as JSON, units sorted for stable files.
func (cs Clusters) Save(path string) error {
	out := make([]Cluster, len(cs))
	for i, cluster := range cs {
		units := append([]int(nil), cluster.Units...)
		sort.Ints(units)
		out[i] = Cluster{Units: units}
	}
	data, err := json.MarshalIndent(clustersFile{Clusters: out}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Load reads a collection saved by Save.
func Load(path string) (Clusters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file clustersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return Clusters(file.Clusters), nil
}
