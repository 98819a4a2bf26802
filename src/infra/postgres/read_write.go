package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Params são os parâmetros de conexão. ReadHost vazio reaproveita o Host para leitura.
type Params struct {
	Host           string
	ReadHost       string
	Port           string
	Name           string
	User           string
	Password       string
	MaxConnections int
}

// ReadWriteClient separa o pool de leitura do pool de escrita. Sem réplica
// configurada os dois apontam para o mesmo pool.
type ReadWriteClient struct {
	readPool  *pgxpool.Pool
	writePool *pgxpool.Pool
}

func NewReadWriteClient(params Params) (*ReadWriteClient, error) {
	port := params.Port
	if port == "" {
		port = "5432"
	}

	writePool, err := NewPostgresClient(params.Host, port, params.Name, params.User, params.Password, params.MaxConnections)
	if err != nil {
		return nil, err
	}

	if params.ReadHost == "" || params.ReadHost == params.Host {
		return &ReadWriteClient{readPool: writePool, writePool: writePool}, nil
	}

	readPool, err := NewPostgresClient(params.ReadHost, port, params.Name, params.User, params.Password, params.MaxConnections)
	if err != nil {
		writePool.Close()
		return nil, err
	}

	return &ReadWriteClient{
		readPool:  readPool,
		writePool: writePool,
	}, nil
}

func (rwc *ReadWriteClient) GetReadPool() *pgxpool.Pool {
	return rwc.readPool
}

func (rwc *ReadWriteClient) GetWritePool() *pgxpool.Pool {
	return rwc.writePool
}

func (rwc *ReadWriteClient) Close() {
	if rwc.readPool != nil && rwc.readPool != rwc.writePool {
		rwc.readPool.Close()
	}
	if rwc.writePool != nil {
		rwc.writePool.Close()
	}
}
