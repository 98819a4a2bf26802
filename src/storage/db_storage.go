package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
	"hbnb/src/infra/postgres"
	"hbnb/src/infra/redis"
	"hbnb/src/repositories"
)

type ModelReader interface {
	SelectByClass(ctx context.Context, schema *entities.Schema) ([]map[string]any, error)
	SelectByID(ctx context.Context, schema *entities.Schema, id string) (map[string]any, bool, error)
	SelectRelated(ctx context.Context, relation domain.Relation, ownerID string) ([]map[string]any, error)
}

type ModelWriter interface {
	Apply(ctx context.Context, work repositories.UnitOfWork) ([]domain.ModelChange, error)
}

type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error
}

// Backend agrupa o que o motor relacional precisa de uma conexão aberta.
type Backend struct {
	Reader ModelReader
	Writer ModelWriter
	Schema SchemaManager
	Close  func()
}

// Connector abre o Backend. É chamado no primeiro Reload.
type Connector func(ctx context.Context) (*Backend, error)

// DBConfig são os parâmetros do motor relacional.
type DBConfig struct {
	postgres.Params

	// DropOnInit apaga as tabelas na primeira conexão (HBNB_ENV=test).
	DropOnInit bool
}

// Complete informa se os quatro parâmetros obrigatórios estão presentes.
func (c DBConfig) Complete() bool {
	return c.User != "" && c.Password != "" && c.Host != "" && c.Name != ""
}

// PostgresConnector conecta via pgxpool e monta os repositórios. redisClient pode ser nil.
func PostgresConnector(logger *slog.Logger, params postgres.Params, redisClient *redis.RedisClient) Connector {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context) (*Backend, error) {
		client, err := postgres.NewReadWriteClient(params)
		if err != nil {
			return nil, err
		}

		queryRepository := repositories.NewModelQueryRepository(client.GetReadPool())
		cachedQueryRepository := repositories.NewCachedModelQueryRepository(logger, queryRepository, redisClient)

		return &Backend{
			Reader: cachedQueryRepository,
			Writer: repositories.NewModelWriteRepository(logger, client.GetWritePool(), cachedQueryRepository),
			Schema: repositories.NewSchemaRepository(client.GetWritePool()),
			Close:  client.Close,
		}, nil
	}
}

// DBStorage delega identidade e consulta ao banco por meio de uma sessão:
// New e Delete só preparam, Save faz o commit.
//
// Sem configuração completa o motor vira um store no-op: All vazio, New aceito
// e nunca durável, Save sem efeito.
type DBStorage struct {
	mu       sync.Mutex
	logger   *slog.Logger
	connect  Connector
	notifier domain.ChangeNotifier

	dropOnInit bool
	dropped    bool

	backend *Backend
	session *session
}

// NewDBStorage não abre conexão; isso acontece no Reload.
func NewDBStorage(logger *slog.Logger, config DBConfig, connect Connector, notifier domain.ChangeNotifier) *DBStorage {
	if logger == nil {
		logger = slog.Default()
	}

	s := &DBStorage{
		logger:     logger,
		notifier:   notifier,
		dropOnInit: config.DropOnInit,
	}

	if config.Complete() {
		s.connect = connect
	} else {
		logger.Info("DBStorage - incomplete connection parameters, running as a no-op store")
	}

	return s
}

// Configured informa se o motor tem uma conexão para abrir.
func (s *DBStorage) Configured() bool {
	return s.connect != nil
}

// Reload garante o schema e abre uma nova sessão. O que estava pendente é descartado.
func (s *DBStorage) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connect == nil {
		return nil
	}

	if s.backend == nil {
		backend, err := s.connect(ctx)
		if err != nil {
			return fmt.Errorf("DBStorage.Reload - %w: %w", domain.ErrPersistenceFailure, err)
		}
		s.backend = backend
	}

	if s.dropOnInit && !s.dropped {
		if err := s.backend.Schema.DropSchema(ctx); err != nil {
			return fmt.Errorf("DBStorage.Reload - %w: %w", domain.ErrPersistenceFailure, err)
		}
		s.dropped = true
	}

	if err := s.backend.Schema.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("DBStorage.Reload - %w: %w", domain.ErrPersistenceFailure, err)
	}

	if s.session != nil && s.session.pending() > 0 {
		s.logger.Warn("DBStorage.Reload - discarding pending changes", "pending", s.session.pending())
	}
	s.session = newSession()

	return nil
}

func (s *DBStorage) All(ctx context.Context, class string) (map[string]domain.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.Model)
	if s.session == nil {
		return out, nil
	}

	var schemas []*entities.Schema
	if class == "" {
		schemas = entities.Schemas()
	} else if schema, ok := entities.Lookup(class); ok {
		schemas = []*entities.Schema{schema}
	} else {
		return out, nil
	}

	for _, schema := range schemas {
		rows, err := s.backend.Reader.SelectByClass(ctx, schema)
		if err != nil {
			return nil, fmt.Errorf("DBStorage.All - %w: %w", domain.ErrPersistenceFailure, err)
		}
		s.reconstructInto(out, schema.Class, rows)
	}

	s.session.overlay(out, class)
	return out, nil
}

func (s *DBStorage) reconstructInto(out map[string]domain.Model, class string, rows []map[string]any) {
	for _, row := range rows {
		m, err := entities.Reconstruct(s, class, row)
		if err != nil {
			s.logger.Warn("DBStorage - skipping row", "class", class, "error", err)
			continue
		}
		out[m.Key()] = m
	}
}

func (s *DBStorage) Get(ctx context.Context, class string, id string) (domain.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notFound := fmt.Errorf("DBStorage.Get - %s.%s: %w", class, id, domain.ErrNotFound)

	schema, ok := entities.Lookup(class)
	if !ok || s.session == nil {
		return nil, notFound
	}

	key := domain.ModelKey(class, id)
	if s.session.isDeleted(key) {
		return nil, notFound
	}
	if m, ok := s.session.upserts[key]; ok {
		return m, nil
	}

	row, found, err := s.backend.Reader.SelectByID(ctx, schema, id)
	if err != nil {
		return nil, fmt.Errorf("DBStorage.Get - %w: %w", domain.ErrPersistenceFailure, err)
	}
	if !found {
		return nil, notFound
	}

	m, err := entities.Reconstruct(s, class, row)
	if err != nil {
		return nil, fmt.Errorf("DBStorage.Get - %w", err)
	}
	return m, nil
}

func (s *DBStorage) Count(ctx context.Context, class string) (int, error) {
	all, err := s.All(ctx, class)
	return len(all), err
}

func (s *DBStorage) New(m domain.Model) {
	if m == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return
	}
	s.session.stage(m)
}

func (s *DBStorage) Delete(m domain.Model) {
	if m == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return
	}
	s.session.remove(m)
}

// Related usa o índice da chave estrangeira ou a tabela de junção e aplica a sessão por cima.
func (s *DBStorage) Related(ctx context.Context, owner domain.Model, relation domain.Relation) ([]domain.Model, error) {
	if owner == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil
	}

	// dono ainda não commitado: a tabela de junção não sabe dele, vale a lista em memória
	if _, pending := s.session.upserts[owner.Key()]; pending && relation.Kind == domain.ManyToMany {
		return s.resolveListLocked(ctx, owner, relation)
	}

	rows, err := s.backend.Reader.SelectRelated(ctx, relation, owner.GetID())
	if err != nil {
		return nil, fmt.Errorf("DBStorage.Related - %w: %w", domain.ErrPersistenceFailure, err)
	}

	found := make(map[string]domain.Model, len(rows))
	s.reconstructInto(found, relation.Target, rows)

	if relation.Kind == domain.OneToMany {
		for key, m := range s.session.upserts {
			if m.ClassName() != relation.Target {
				continue
			}
			if fk, _ := m.Attribute(relation.ForeignKey); fk == owner.GetID() {
				found[key] = m
			} else {
				delete(found, key)
			}
		}
	}
	for key := range s.session.deletes {
		delete(found, key)
	}

	out := make([]domain.Model, 0, len(found))
	for _, m := range found {
		out = append(out, m)
	}
	entities.SortModels(out)
	return out, nil
}

func (s *DBStorage) resolveListLocked(ctx context.Context, owner domain.Model, relation domain.Relation) ([]domain.Model, error) {
	target, ok := entities.Lookup(relation.Target)
	if !ok {
		return nil, fmt.Errorf("DBStorage.Related - %w: %s", domain.ErrUnknownClass, relation.Target)
	}

	raw, _ := owner.Attribute(relation.ListAttribute)
	ids, _ := raw.([]string)

	var out []domain.Model
	for _, id := range ids {
		key := domain.ModelKey(relation.Target, id)
		if s.session.isDeleted(key) {
			continue
		}
		if m, ok := s.session.upserts[key]; ok {
			out = append(out, m)
			continue
		}

		row, found, err := s.backend.Reader.SelectByID(ctx, target, id)
		if err != nil {
			return nil, fmt.Errorf("DBStorage.Related - %w: %w", domain.ErrPersistenceFailure, err)
		}
		if !found {
			continue
		}
		m, err := entities.Reconstruct(s, relation.Target, row)
		if err != nil {
			s.logger.Warn("DBStorage - skipping row", "class", relation.Target, "error", err)
			continue
		}
		out = append(out, m)
	}

	entities.SortModels(out)
	return out, nil
}

// Save faz o commit da unidade de trabalho. Em falha a sessão fica intacta para nova tentativa.
func (s *DBStorage) Save(ctx context.Context) error {
	s.mu.Lock()

	if s.session == nil || s.session.pending() == 0 {
		s.mu.Unlock()
		return nil
	}

	changes, err := s.backend.Writer.Apply(ctx, s.session.unitOfWork())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("DBStorage.Save - %w: %w", domain.ErrPersistenceFailure, err)
	}

	s.session = newSession()
	s.mu.Unlock()

	if s.notifier != nil && len(changes) > 0 {
		if err := s.notifier.Notify(ctx, changes); err != nil {
			s.logger.Error("DBStorage.Save - failed to publish changes", "error", err, "changes", len(changes))
		}
	}

	return nil
}

// Pending devolve quantas alterações aguardam o próximo Save.
func (s *DBStorage) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return 0
	}
	return s.session.pending()
}

func (s *DBStorage) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil && s.backend.Close != nil {
		s.backend.Close()
	}
	s.backend = nil
	s.session = nil
}
