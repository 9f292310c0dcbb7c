package migration

// ReconcileSummary reports one reconciliation run. On a failed run it holds
// the progress made before the failing group.
type ReconcileSummary struct {
	GroupsFound     int    `json:"groups_found"`
	GroupsProcessed int    `json:"groups_processed"`
	GroupsSkipped   int    `json:"groups_skipped"`
	RecordsDeleted  int64  `json:"records_deleted"`
	LegacyFolded    int    `json:"legacy_folded"`
	Duration        string `json:"duration"`
}

type AssigneeSummary struct {
	ProjectsUpdated int64  `json:"projects_updated"`
	Duration        string `json:"duration"`
}
