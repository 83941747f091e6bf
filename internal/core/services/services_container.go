package services

import (
	portsrepo "github.com/corefin/accounting_core_app/internal/core/ports/repositories"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized
// dependencies. Construction order follows the dependency chain: reference data
// services first, then the posting engine, then the document services on top.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo, container.Currency)
	container.FX = NewFXService(repos.ExchangeRateRepo, repos.CurrencyRepo, cfg.BaseCurrencyCode)
	container.Account = NewAccountService(repos.AccountRepo, repos.CurrencyRepo)
	container.TaxRate = NewTaxRateService(repos.TaxRepo)

	container.Ledger = NewLedgerService(repos.JournalRepo, container.Account)

	container.Invoice = NewInvoiceService(
		repos.InvoiceRepo,
		repos.JournalRepo,
		container.Account,
		container.TaxRate,
		container.FX,
		repos.CurrencyRepo,
		container.Ledger,
	)
	container.Payment = NewPaymentService(
		repos.PaymentRepo,
		repos.InvoiceRepo,
		repos.JournalRepo,
		container.Account,
		container.FX,
		repos.CurrencyRepo,
		container.TaxRate,
	)
	container.CorporateTax = NewCorporateTaxService(
		repos.TaxRepo,
		repos.JournalRepo,
		container.Account,
		container.Ledger,
		container.FX,
	)

	return container
}
