package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
)

// FileState é o estado do pool do motor de arquivo.
type FileState int

const (
	FileEmpty FileState = iota
	FileLoaded
	FileDirty
	FilePersisted
)

func (s FileState) String() string {
	switch s {
	case FileEmpty:
		return "empty"
	case FileLoaded:
		return "loaded"
	case FileDirty:
		return "dirty"
	case FilePersisted:
		return "persisted"
	}
	return "unknown"
}

// FileStorage mantém todo o pool em memória e o grava inteiro em um único arquivo JSON.
//
// Save é uma seção crítica: dois processos gravando o mesmo arquivo não são suportados.
type FileStorage struct {
	mu       sync.Mutex
	logger   *slog.Logger
	path     string
	notifier domain.ChangeNotifier

	objects   map[string]domain.Model
	persisted map[string]struct{}
	dirty     map[string]struct{}
	removed   map[string]domain.Model
	state     FileState
}

// NewFileStorage cria o motor de arquivo. notifier pode ser nil.
func NewFileStorage(logger *slog.Logger, path string, notifier domain.ChangeNotifier) *FileStorage {
	if logger == nil {
		logger = slog.Default()
	}

	return &FileStorage{
		logger:    logger,
		path:      path,
		notifier:  notifier,
		objects:   make(map[string]domain.Model),
		persisted: make(map[string]struct{}),
		dirty:     make(map[string]struct{}),
		removed:   make(map[string]domain.Model),
		state:     FileEmpty,
	}
}

func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) State() FileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *FileStorage) All(_ context.Context, class string) (map[string]domain.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.Model, len(s.objects))
	for key, m := range s.objects {
		if class == "" || m.ClassName() == class {
			out[key] = m
		}
	}
	return out, nil
}

func (s *FileStorage) Get(_ context.Context, class string, id string) (domain.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.objects[domain.ModelKey(class, id)]
	if !ok {
		return nil, fmt.Errorf("FileStorage.Get - %s.%s: %w", class, id, domain.ErrNotFound)
	}
	return m, nil
}

func (s *FileStorage) Count(ctx context.Context, class string) (int, error) {
	all, err := s.All(ctx, class)
	return len(all), err
}

func (s *FileStorage) New(m domain.Model) {
	if m == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.Key()
	s.objects[key] = m
	s.dirty[key] = struct{}{}
	delete(s.removed, key)
	s.state = FileDirty
}

// Delete remove o modelo do pool e aplica as cascatas declaradas em entities.Relations.
func (s *FileStorage) Delete(m domain.Model) {
	if m == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[m.Key()]; !ok {
		return
	}

	s.deleteLocked(m)
	s.state = FileDirty
}

func (s *FileStorage) deleteLocked(m domain.Model) {
	key := m.Key()
	if _, ok := s.objects[key]; !ok {
		return
	}

	delete(s.objects, key)
	delete(s.dirty, key)
	s.removed[key] = m

	for _, relation := range entities.CascadesFrom(m.ClassName()) {
		for _, child := range s.scanLocked(m, relation) {
			s.deleteLocked(child)
		}
	}

	// o lado lista do muitos-para-muitos perde o id, como as linhas da tabela de junção
	for _, relation := range entities.ManyToManyTargeting(m.ClassName()) {
		for ownerKey, owner := range s.objects {
			if owner.ClassName() != relation.Owner {
				continue
			}
			ids, _ := owner.Attribute(relation.ListAttribute)
			list, _ := ids.([]string)
			if !slices.Contains(list, m.GetID()) {
				continue
			}
			list = slices.DeleteFunc(list, func(id string) bool { return id == m.GetID() })
			if err := entities.SetAttribute(owner, relation.ListAttribute, list); err != nil {
				s.logger.Error("FileStorage.Delete - failed to unlink many-to-many", "key", ownerKey, "error", err)
				continue
			}
			s.dirty[ownerKey] = struct{}{}
		}
	}
}

// Related varre o pool inteiro: O(n) no número de objetos vivos.
func (s *FileStorage) Related(_ context.Context, owner domain.Model, relation domain.Relation) ([]domain.Model, error) {
	if owner == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	related := s.scanLocked(owner, relation)
	entities.SortModels(related)
	return related, nil
}

func (s *FileStorage) scanLocked(owner domain.Model, relation domain.Relation) []domain.Model {
	var out []domain.Model

	switch relation.Kind {
	case domain.OneToMany:
		for _, m := range s.objects {
			if m.ClassName() != relation.Target {
				continue
			}
			if fk, ok := m.Attribute(relation.ForeignKey); ok && fk == owner.GetID() {
				out = append(out, m)
			}
		}

	case domain.ManyToMany:
		raw, _ := owner.Attribute(relation.ListAttribute)
		ids, _ := raw.([]string)
		for _, id := range ids {
			if m, ok := s.objects[domain.ModelKey(relation.Target, id)]; ok {
				out = append(out, m)
			}
		}
	}

	return out
}

// Save serializa o pool inteiro e substitui o arquivo de forma atômica.
// Um erro de serialização aborta antes de tocar o destino.
func (s *FileStorage) Save(ctx context.Context) error {
	s.mu.Lock()

	document := make(map[string]map[string]any, len(s.objects))
	for key, m := range s.objects {
		document[key] = m.ToMap()
	}

	data, err := json.MarshalIndent(document, "", "    ")
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("FileStorage.Save - failed to serialize pool: %w", err)
	}

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("FileStorage.Save - failed to write %s: %w", s.path, err)
	}

	changes := s.collectChangesLocked(document)

	s.persisted = make(map[string]struct{}, len(document))
	for key := range document {
		s.persisted[key] = struct{}{}
	}
	s.dirty = make(map[string]struct{})
	s.removed = make(map[string]domain.Model)
	s.state = FilePersisted

	s.mu.Unlock()

	s.notify(ctx, changes)
	return nil
}

func (s *FileStorage) collectChangesLocked(document map[string]map[string]any) []domain.ModelChange {
	if s.notifier == nil {
		return nil
	}

	now := domain.Now()
	var changes []domain.ModelChange

	for key := range s.dirty {
		attrs, ok := document[key]
		if !ok {
			continue
		}
		changeType := domain.ChangeUpdated
		if _, existed := s.persisted[key]; !existed {
			changeType = domain.ChangeCreated
		}
		class, id, _ := domain.SplitKey(key)
		changes = append(changes, domain.ModelChange{
			Type: changeType, Key: key, Class: class, ID: id, Attributes: attrs, OccurredAt: now,
		})
	}

	for key, m := range s.removed {
		if _, existed := s.persisted[key]; !existed {
			continue
		}
		changes = append(changes, domain.ModelChange{
			Type: domain.ChangeDeleted, Key: key, Class: m.ClassName(), ID: m.GetID(), OccurredAt: now,
		})
	}

	return changes
}

func (s *FileStorage) notify(ctx context.Context, changes []domain.ModelChange) {
	if s.notifier == nil || len(changes) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, changes); err != nil {
		s.logger.Error("FileStorage.Save - failed to publish changes", "error", err, "changes", len(changes))
	}
}

// Reload reconstrói o pool a partir do arquivo. Arquivo ausente ou corrompido
// resulta em pool vazio; entradas com classe desconhecida ou inválidas são puladas.
func (s *FileStorage) Reload(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects = make(map[string]domain.Model)
	s.persisted = make(map[string]struct{})
	s.dirty = make(map[string]struct{})
	s.removed = make(map[string]domain.Model)
	s.state = FileLoaded

	document, err := s.readDocument()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("FileStorage.Reload - starting with an empty store", "path", s.path, "error", err)
		}
		return nil
	}

	for key, attrs := range document {
		m, err := entities.FromMap(s, attrs)
		if err != nil {
			s.logger.Warn("FileStorage.Reload - skipping entry", "key", key, "error", err)
			continue
		}
		s.objects[m.Key()] = m
		s.persisted[m.Key()] = struct{}{}
	}

	s.logger.Debug("FileStorage.Reload - store loaded", "path", s.path, "objects", len(s.objects))
	return nil
}

func (s *FileStorage) readDocument() (map[string]map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var document map[string]map[string]any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedStore, err)
	}
	return document, nil
}

func (s *FileStorage) Close() {}

// writeFileAtomic grava em um arquivo temporário no mesmo diretório e renomeia
// por cima do destino, que nunca fica truncado.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
