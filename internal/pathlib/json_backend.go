package pathlib

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// jsonDocument is the single-document on-disk layout.
type jsonDocument struct {
	Metadata jsonMetadata          `json:"metadata"`
	Paths    map[string]storedPath `json:"paths"`
}

type jsonMetadata struct {
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	TotalPaths int       `json:"total_paths"`
}

// storedPath is a ReasoningPath without its ID (the map key carries it).
type storedPath struct {
	PathType           string              `json:"path_type"`
	Description        string              `json:"description"`
	PromptTemplate     string              `json:"prompt_template"`
	StrategyID         string              `json:"strategy_id"`
	InstanceID         string              `json:"instance_id,omitempty"`
	Metadata           *types.PathMetadata `json:"metadata"`
	IsLearned          bool                `json:"is_learned"`
	LearningSource     string              `json:"learning_source,omitempty"`
	EffectivenessScore float64             `json:"effectiveness_score"`
}

// JSONBackend persists the whole library as one JSON document, rewritten
// atomically on each write.
type JSONBackend struct {
	path      string
	doc       jsonDocument
	createdAt time.Time
}

// NewJSONBackend creates a JSON backend at the given file path.
func NewJSONBackend(path string) (*JSONBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("json backend: storage path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("json backend: failed to create directory: %w", err)
	}
	return &JSONBackend{
		path: path,
		doc: jsonDocument{
			Metadata: jsonMetadata{Version: "1.0", CreatedAt: time.Now()},
			Paths:    make(map[string]storedPath),
		},
		createdAt: time.Now(),
	}, nil
}

func (b *JSONBackend) Name() string { return "json" }

// Load reads the document. A missing or empty file yields an empty library;
// entries with malformed metadata are skipped with a warning.
func (b *JSONBackend) Load() (map[string]*types.ReasoningPath, error) {
	timer := logging.StartTimer(logging.CategoryStore, "JSONBackend.Load")
	defer timer.Stop()

	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*types.ReasoningPath{}, nil
		}
		return nil, fmt.Errorf("json backend: failed to read %s: %w", b.path, err)
	}
	if len(data) == 0 {
		return map[string]*types.ReasoningPath{}, nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("json backend: failed to parse %s: %w", b.path, err)
	}
	if doc.Paths == nil {
		doc.Paths = make(map[string]storedPath)
	}
	b.doc = doc
	if !doc.Metadata.CreatedAt.IsZero() {
		b.createdAt = doc.Metadata.CreatedAt
	}

	out := make(map[string]*types.ReasoningPath, len(doc.Paths))
	for id, sp := range doc.Paths {
		if sp.Metadata == nil {
			logging.Get(logging.CategoryStore).Warn("json backend: skipping %s: malformed metadata", id)
			delete(b.doc.Paths, id)
			continue
		}
		out[id] = &types.ReasoningPath{
			PathID:             id,
			PathType:           sp.PathType,
			Description:        sp.Description,
			PromptTemplate:     sp.PromptTemplate,
			StrategyID:         sp.StrategyID,
			InstanceID:         sp.InstanceID,
			Metadata:           *sp.Metadata,
			IsLearned:          sp.IsLearned,
			LearningSource:     sp.LearningSource,
			EffectivenessScore: sp.EffectivenessScore,
		}
	}
	logging.StoreDebug("json backend: loaded %d paths from %s", len(out), b.path)
	return out, nil
}

// Save upserts one path into the document and rewrites the file.
func (b *JSONBackend) Save(p *types.ReasoningPath) error {
	b.put(p)
	return b.flush()
}

// SaveAll upserts a batch and rewrites the file once.
func (b *JSONBackend) SaveAll(paths []*types.ReasoningPath) error {
	for _, p := range paths {
		b.put(p)
	}
	return b.flush()
}

func (b *JSONBackend) put(p *types.ReasoningPath) {
	meta := p.Metadata
	b.doc.Paths[p.PathID] = storedPath{
		PathType:           p.PathType,
		Description:        p.Description,
		PromptTemplate:     p.PromptTemplate,
		StrategyID:         p.StrategyID,
		InstanceID:         p.InstanceID,
		Metadata:           &meta,
		IsLearned:          p.IsLearned,
		LearningSource:     p.LearningSource,
		EffectivenessScore: p.EffectivenessScore,
	}
}

// flush writes the document atomically: temp file in the same directory,
// then rename over the target.
func (b *JSONBackend) flush() error {
	b.doc.Metadata.Version = "1.0"
	b.doc.Metadata.CreatedAt = b.createdAt
	b.doc.Metadata.UpdatedAt = time.Now()
	b.doc.Metadata.TotalPaths = len(b.doc.Paths)

	data, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json backend: failed to marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".paths-*.json")
	if err != nil {
		return fmt.Errorf("json backend: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("json backend: failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("json backend: failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("json backend: failed to replace %s: %w", b.path, err)
	}
	return nil
}

func (b *JSONBackend) Close() error { return nil }
