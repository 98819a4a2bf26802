package domain

import (
	"context"
	"time"
)

// Model é o conjunto fixo de capacidades que toda entidade persistida oferece.
type Model interface {
	ClassName() string
	GetID() string
	Key() string
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time

	// ToMap produz o mapa plano serializável, com __class__ e timestamps em texto.
	ToMap() map[string]any

	// Attribute lê um atributo público pelo nome usado na forma serializada.
	Attribute(name string) (any, bool)

	String() string
}

// Storage é o contrato comum aos dois motores (arquivo e relacional).
//
// Nenhuma implementação é segura para uso concorrente além do mutex interno
// do pool: o host deve serializar as chamadas (um único loop de comandos).
type Storage interface {
	// All retorna chave composta -> modelo. class vazio significa todas as classes.
	// Um motor não inicializado devolve um mapa vazio, nunca erro.
	All(ctx context.Context, class string) (map[string]Model, error)

	// Get devolve ErrNotFound quando a chave não existe.
	Get(ctx context.Context, class string, id string) (Model, error)

	Count(ctx context.Context, class string) (int, error)

	// New registra o modelo como pendente. Chamadas repetidas antes do save são idempotentes.
	New(m Model)

	// Save torna durável tudo que está pendente, de forma atômica para o chamador.
	Save(ctx context.Context) error

	// Reload repopula o pool a partir do meio durável.
	Reload(ctx context.Context) error

	// Delete remove o modelo. nil ou ausente é no-op.
	Delete(m Model)

	// Related resolve um relacionamento derivado. O custo depende do motor:
	// varredura O(n) do pool no motor de arquivo, consulta indexada no relacional.
	Related(ctx context.Context, owner Model, relation Relation) ([]Model, error)

	Close()
}

// ChangeNotifier recebe as alterações que acabaram de se tornar duráveis.
type ChangeNotifier interface {
	Notify(ctx context.Context, changes []ModelChange) error
}

type RelationKind int

const (
	OneToMany RelationKind = iota
	ManyToMany
)

// Relation declara um relacionamento uma única vez; o schema relacional e a
// varredura do motor de arquivo são derivados dessa declaração.
type Relation struct {
	Name   string
	Owner  string
	Target string
	Kind   RelationKind

	// OneToMany: coluna/atributo no alvo que aponta para o dono.
	ForeignKey string

	// ManyToMany: tabela de junção e atributo lista no dono (motor de arquivo).
	JoinTable     string
	OwnerColumn   string
	TargetColumn  string
	ListAttribute string

	// Cascade remove os dependentes quando o dono é removido.
	Cascade bool
}
