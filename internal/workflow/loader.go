package workflow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// generatedHeader is written at the top of every rendered document.
const generatedHeader = "Generated by gen-workflow from the instance ledger. Do not edit by hand."

// File pairs a parsed document with its on-disk source.
type File struct {
	Path     string
	Document Document
}

// Render encodes the document as workflow YAML. Key order and job order are
// preserved by building the node tree by hand.
func Render(doc Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	root := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(root, "name", scalar(doc.Name))

	triggers := &yaml.Node{Kind: yaml.MappingNode}
	for _, trigger := range doc.Triggers {
		appendPair(triggers, trigger, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"})
	}
	appendPair(root, "on", triggers)

	jobs := &yaml.Node{Kind: yaml.MappingNode}
	for _, job := range doc.Jobs {
		appendPair(jobs, job.ID, jobNode(job))
	}
	appendPair(root, "jobs", jobs)

	document := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: generatedHeader,
		Content:     []*yaml.Node{root},
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document); err != nil {
		return nil, fmt.Errorf("workflow: encode %s: %w", doc.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("workflow: encode %s: %w", doc.Name, err)
	}
	return buf.Bytes(), nil
}

func jobNode(job Job) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(node, "runs-on", scalar(job.RunsOn))
	steps := &yaml.Node{Kind: yaml.SequenceNode}
	for _, step := range job.Steps {
		item := &yaml.Node{Kind: yaml.MappingNode}
		if step.Name != "" {
			appendPair(item, "name", scalar(step.Name))
		}
		if step.Uses != "" {
			appendPair(item, "uses", scalar(step.Uses))
		}
		if step.Run != "" {
			appendPair(item, "run", scalar(step.Run))
		}
		steps.Content = append(steps.Content, item)
	}
	appendPair(node, "steps", steps)
	return node
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, scalar(key), value)
}

type rawStep struct {
	Name string `yaml:"name"`
	Uses string `yaml:"uses"`
	Run  string `yaml:"run"`
}

type rawJob struct {
	RunsOn string    `yaml:"runs-on"`
	Steps  []rawStep `yaml:"steps"`
}

// Parse decodes a workflow document, keeping job declaration order.
func Parse(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("workflow: document is empty")
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Document{}, fmt.Errorf("workflow: decode document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return Document{}, fmt.Errorf("workflow: document must be a mapping")
	}
	var doc Document
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		switch key.Value {
		case "name":
			doc.Name = value.Value
		case "on":
			doc.Triggers = parseTriggers(value)
		case "jobs":
			jobs, err := parseJobs(value)
			if err != nil {
				return Document{}, err
			}
			doc.Jobs = jobs
		}
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func parseTriggers(node *yaml.Node) []string {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			out = append(out, item.Value)
		}
		return out
	case yaml.MappingNode:
		out := make([]string, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			out = append(out, node.Content[i].Value)
		}
		return out
	}
	return nil
}

func parseJobs(node *yaml.Node) ([]Job, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("workflow: jobs must be a mapping")
	}
	jobs := make([]Job, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		id := node.Content[i].Value
		var raw rawJob
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("workflow: decode job %s: %w", id, err)
		}
		job := Job{ID: id, RunsOn: raw.RunsOn}
		for _, step := range raw.Steps {
			job.Steps = append(job.Steps, Step(step))
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// LoadFile loads a workflow document from an explicit file path.
func LoadFile(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	doc, err := Parse(content)
	if err != nil {
		return Document{}, fmt.Errorf("workflow: %s: %w", path, err)
	}
	return doc, nil
}

// LoadDir parses every *.yml / *.yaml file in dir, sorted by file name.
func LoadDir(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", dir, err)
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: path, Document: doc})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// WriteFile renders doc and writes it to path.
func WriteFile(path string, doc Document) error {
	content, err := Render(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("workflow: write %s: %w", path, err)
	}
	return nil
}

// ClearDir removes every file directly inside dir and returns the removed
// paths. Subdirectories are left alone. A missing dir is an error.
func ClearDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", dir, err)
	}
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("workflow: remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}
