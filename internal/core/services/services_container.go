package services

import (
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/platform/config"
)

// NewServiceContainer wires all services against the repository provider.
func NewServiceContainer(repos portsrepo.RepositoryProvider, cfg *config.Config) *portssvc.ServiceContainer {
	accountSvc := NewAccountService(repos.AccountRepo, cfg.Ledger)
	return &portssvc.ServiceContainer{
		Account:   accountSvc,
		Entry:     NewEntryService(repos.EntryRepo, accountSvc, cfg.Ledger),
		Template:  NewTemplateService(repos.TemplateRepo, cfg.Ledger),
		Reporting: NewReportingService(repos.ReportingRepo, cfg.Ledger),
	}
}
