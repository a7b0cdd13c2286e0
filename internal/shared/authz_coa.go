package shared

// Chart-of-accounts capabilities declared for RBAC.
const (
	PermCOAView         = "finance.coa.view"
	PermCOAEdit         = "finance.coa.edit"
	PermLinkedEdit      = "finance.coa.linked.edit"
	PermFiscalYearsEdit = "finance.fiscal_years.edit"
)

// COAScopes lists all permissions related to the chart of accounts.
func COAScopes() []string {
	return []string{
		PermCOAView,
		PermCOAEdit,
		PermLinkedEdit,
		PermFiscalYearsEdit,
	}
}
