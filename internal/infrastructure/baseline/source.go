package baseline

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

//go:embed data/*.json
var embedded embed.FS

// Source loads raw baseline documents by dataset name
type Source interface {
	Load(ctx context.Context, dataset string) ([]byte, error)
	Name() string
}

// ErrDatasetNotFound is returned by a source that has no document for a dataset
var ErrDatasetNotFound = errors.New("baseline dataset not found")

// FSSource reads <dataset>.json files from a file system
type FSSource struct {
	fsys fs.FS
	dir  string
	name string
}

// EmbeddedSource returns the source backed by the datasets compiled into the binary.
// The bundled documents are reduced samples and do not reproduce the BASE_SCORE
// counts; audit with documents produced by `baseline generate` from real GSI
// captures, served through DirSource or RedisSource.
func EmbeddedSource() *FSSource {
	return &FSSource{fsys: embedded, dir: "data", name: "embedded"}
}

// DirSource returns a source reading documents from a directory on disk
func DirSource(dir string) *FSSource {
	return &FSSource{fsys: os.DirFS(dir), dir: ".", name: "dir"}
}

func (s *FSSource) Name() string { return s.name }

func (s *FSSource) Load(_ context.Context, dataset string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, path.Join(s.dir, dataset+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dataset, ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline %s: %w", dataset, err)
	}
	return data, nil
}

// Getter is the subset of the Redis cache used to fetch baseline documents
type Getter interface {
	GetBaseline(ctx context.Context, dataset string) ([]byte, error)
}

// RedisSource serves baseline documents published to Redis
type RedisSource struct {
	cache Getter
}

// NewRedisSource creates a source backed by the given cache
func NewRedisSource(cache Getter) *RedisSource {
	return &RedisSource{cache: cache}
}

func (s *RedisSource) Name() string { return "redis" }

func (s *RedisSource) Load(ctx context.Context, dataset string) ([]byte, error) {
	data, err := s.cache.GetBaseline(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch baseline %s from redis: %w", dataset, err)
	}
	return data, nil
}
