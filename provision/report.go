package provision

import (
	"fmt"

	"github.com/gymstack/rbac/models"
)

// StageCounts tallies the outcome of one provisioning stage.
// Missing counts role-definition task slugs that resolved to no task.
type StageCounts struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Forced   int `json:"forced"`
	Missing  int `json:"missing"`
}

func (c StageCounts) String() string {
	return fmt.Sprintf("created=%d existing=%d forced=%d missing=%d", c.Created, c.Existing, c.Forced, c.Missing)
}

// Report is the outcome of one provisioning invocation.
type Report struct {
	RunID       string        `json:"run_id"`
	Module      models.Module `json:"module"`
	Categories  StageCounts   `json:"categories"`
	Tasks       StageCounts   `json:"tasks"`
	Roles       StageCounts   `json:"roles"`
	Bindings    int           `json:"bindings"`
	Assignments StageCounts   `json:"assignments"`
	Warnings    []string      `json:"warnings,omitempty"`
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// CleanupReport counts what a cleanup invocation deleted, or, under dry-run,
// what it would delete.
type CleanupReport struct {
	Module     models.Module `json:"module"`
	DryRun     bool          `json:"dry_run"`
	RoleUsers  int64         `json:"role_users"`
	RoleTasks  int64         `json:"role_tasks"`
	Roles      int64         `json:"roles"`
	Tasks      int64         `json:"tasks"`
	Categories int64         `json:"categories"`
	Warnings   []string      `json:"warnings,omitempty"`
}

func (r *CleanupReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
