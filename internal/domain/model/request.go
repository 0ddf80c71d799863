package model

import "strings"

// RankingRequest is the payload of a ranking generation request.
type RankingRequest struct {
	CompetitionName string    `json:"competitionName,omitempty" yaml:"competition_name,omitempty"`
	Apparatus       []string  `json:"apparatus" yaml:"apparatus"`
	Athletes        []Athlete `json:"athletes" yaml:"athletes"`
}

// ApparatusOrDefault returns the request's apparatus labels when exactly
// ApparatusCount are given, otherwise DefaultApparatus.
func (r RankingRequest) ApparatusOrDefault() []string {
	if len(r.Apparatus) != ApparatusCount {
		return append([]string(nil), DefaultApparatus...)
	}
	out := make([]string, len(r.Apparatus))
	for i, a := range r.Apparatus {
		out[i] = strings.TrimSpace(a)
	}
	return out
}

// Validate checks the request for client errors.
func (r RankingRequest) Validate() error {
	if len(r.Athletes) == 0 {
		return ErrNoAthletes
	}
	return nil
}

// Flatten turns ordered groups into athletes carrying 1-based group indices.
func Flatten(groups [][]Athlete) []Athlete {
	var out []Athlete
	for g, group := range groups {
		for _, a := range group {
			a.Group = g + 1
			out = append(out, a)
		}
	}
	return out
}
