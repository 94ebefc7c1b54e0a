package model

// VersionInfo describes the running build and the schema it is attached to.
type VersionInfo struct {
	AppVersion      string `json:"app_version"`
	DbVersion       string `json:"db_version"`
	MigrationNeeded bool   `json:"migration_needed"`
}
