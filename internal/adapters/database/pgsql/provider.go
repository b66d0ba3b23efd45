package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgsql repositories against one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:   NewAccountRepository(pool),
		EntryRepo:     NewEntryRepository(pool),
		TemplateRepo:  NewTemplateRepository(pool),
		ReportingRepo: NewReportingRepository(pool),
	}
}
