// Package interchange converts ranking requests to and from the YAML
// interchange file and the scored record text read by the ingestor.
package interchange

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/geku/kutu/internal/domain/ingest"
	"github.com/geku/kutu/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Version is written into every exported file.
const Version = 1

// File is the YAML document layout.
type File struct {
	Version              int `yaml:"version"`
	model.RankingRequest `yaml:",inline"`
}

// Normalize returns req with trimmed fields, the effective apparatus list and
// exactly one score pair per apparatus for every athlete.
func Normalize(req model.RankingRequest) model.RankingRequest {
	apparatus := req.ApparatusOrDefault()
	out := model.RankingRequest{
		CompetitionName: strings.TrimSpace(req.CompetitionName),
		Apparatus:       apparatus,
		Athletes:        make([]model.Athlete, len(req.Athletes)),
	}
	for i, a := range req.Athletes {
		out.Athletes[i] = a.Normalized(len(apparatus))
	}
	return out
}

// Export encodes req as a YAML interchange file.
func Export(req model.RankingRequest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Version: Version, RankingRequest: Normalize(req)}); err != nil {
		return nil, fmt.Errorf("encode interchange file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode interchange file: %w", err)
	}
	return buf.Bytes(), nil
}

// Import decodes a YAML interchange file. Unknown fields are rejected.
func Import(data []byte) (model.RankingRequest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return model.RankingRequest{}, fmt.Errorf("%w: empty document", ErrDecode)
		}
		return model.RankingRequest{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if f.Version != Version {
		return model.RankingRequest{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	return Normalize(f.RankingRequest), nil
}

// RecordText writes req as scored record text: a header row, then one row
// per athlete ordered by group. Athletes without a valid group go to group 1.
func RecordText(req model.RankingRequest, delimiter rune) (string, error) {
	req = Normalize(req)

	athletes := append([]model.Athlete(nil), req.Athletes...)
	for i := range athletes {
		if athletes[i].Group < 1 {
			athletes[i].Group = 1
		}
	}
	sort.SliceStable(athletes, func(i, j int) bool { return athletes[i].Group < athletes[j].Group })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiter

	header := []string{"Gruppe", "Nachname", "Vorname", "JG", "Verein", "Kat"}
	for _, app := range req.Apparatus {
		header = append(header, app+" E", app+" D")
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for _, a := range athletes {
		row := []string{strconv.Itoa(a.Group), a.LastName, a.FirstName, a.BirthYear, a.Club, a.Category}
		for _, s := range a.Scores {
			row = append(row, s.Execution, s.Difficulty)
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write record text: %w", err)
	}
	return buf.String(), nil
}

// FromRecordText reads scored record text back into a request with the
// given apparatus labels.
func FromRecordText(r io.Reader, delimiter rune, apparatus []string) (model.RankingRequest, error) {
	req := Normalize(model.RankingRequest{Apparatus: apparatus})
	groups, err := ingest.ParseScored(r, delimiter, len(req.Apparatus))
	if err != nil {
		return model.RankingRequest{}, err
	}
	req.Athletes = model.Flatten(groups)
	return req, nil
}
