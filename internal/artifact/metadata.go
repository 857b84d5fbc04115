package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const timeLayout = time.RFC3339

type sidecar struct {
	Solution solutionMetadata `yaml:"solution"`
}

type solutionMetadata struct {
	Instance  string `yaml:"instance"`
	Status    string `yaml:"status"`
	Objective string `yaml:"objective,omitempty"`
	Bound     string `yaml:"bound,omitempty"`
	Optimal   bool   `yaml:"optimal"`
	Run       string `yaml:"run,omitempty"`
	Created   string `yaml:"created"`
	Checksum  string `yaml:"checksum"`
}

func encodeMetadata(meta Metadata) ([]byte, error) {
	doc := sidecar{Solution: solutionMetadata{
		Instance:  meta.Instance,
		Status:    meta.Status,
		Objective: meta.Objective,
		Bound:     meta.Bound,
		Optimal:   meta.Optimal,
		Run:       meta.RunID,
		Created:   meta.CreatedAt.UTC().Format(timeLayout),
		Checksum:  meta.Checksum,
	}}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode metadata: %w", err)
	}
	return data, nil
}

func decodeMetadata(data []byte) (Metadata, error) {
	var doc sidecar
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("artifact: parse metadata: %w", err)
	}
	raw := doc.Solution
	if raw.Instance == "" || raw.Checksum == "" {
		return Metadata{}, fmt.Errorf("artifact: incomplete metadata")
	}
	created, err := time.Parse(timeLayout, raw.Created)
	if err != nil {
		return Metadata{}, fmt.Errorf("artifact: metadata created timestamp: %w", err)
	}
	return Metadata{
		Instance:  raw.Instance,
		Status:    raw.Status,
		Objective: raw.Objective,
		Bound:     raw.Bound,
		Optimal:   raw.Optimal,
		RunID:     raw.Run,
		CreatedAt: created,
		Checksum:  raw.Checksum,
	}, nil
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
