// Command rbacadmin manages the permission catalog: schema migrations, bulk
// provisioning and cleanup, catalog edits, and the HTTP admin API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gymstack/rbac/catalog"
	"github.com/gymstack/rbac/migrate"
	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/provision"
	"github.com/gymstack/rbac/server"
	"github.com/gymstack/rbac/store"
)

const usage = `usage: rbacadmin <command> [flags]

commands:
  migrate     run schema migrations
  provision   establish a module's catalog, roles and admin assignments
  cleanup     delete a module's catalog data in dependency order
  category    manage categories (list, create, move, rename, delete)
  task        manage tasks (list, create, move, rename, recategorize, bind, delete)
  role        manage roles (list, toggle, assign, remove)
  serve       run the HTTP admin API
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "provision":
		err = runProvision(os.Args[2:])
	case "cleanup":
		err = runCleanup(os.Args[2:])
	case "category":
		err = runCategory(os.Args[2:])
	case "task":
		err = runTask(os.Args[2:])
	case "role":
		err = runRole(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "rbacadmin: %v\n", err)
		os.Exit(1)
	}
}

func openDB() (*store.CategoryStore, *store.TaskStore, *store.RoleStore, *store.RoleUserStore, error) {
	dsn := server.GetConfig().RBACDBDSN()
	if dsn == "" {
		return nil, nil, nil, nil, fmt.Errorf("no database DSN configured (set GYM_DATABASE__RBAC__DSN or RBAC_DB_DSN)")
	}
	db, err := store.Open(dsn)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return store.NewCategoryStore(db), store.NewTaskStore(db), store.NewRoleStore(db), store.NewRoleUserStore(db), nil
}

func newEngine() (*provision.Engine, error) {
	dsn := server.GetConfig().RBACDBDSN()
	if dsn == "" {
		return nil, fmt.Errorf("no database DSN configured (set GYM_DATABASE__RBAC__DSN or RBAC_DB_DSN)")
	}
	db, err := store.Open(dsn)
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stdout, "[rbacadmin] ", log.LstdFlags)
	return provision.NewEngine(db, newCache(), logger), nil
}

// newCache connects to the configured Valkey instance so CLI mutations drop
// the same cached permission sets the serve process reads. Without an address
// the cache is a no-op; a process-local cache would be invisible to the server.
func newCache() store.PermissionCache {
	cfg := server.GetConfig()
	if cfg.Valkey.Addr == "" {
		return store.NoopCache{}
	}
	cache, err := store.NewValkeyPermissionCache(cfg.Valkey.Addr, cfg.Valkey.Prefix, cfg.Valkey.TTL)
	if err != nil {
		log.Printf("valkey unreachable, cached permissions expire by TTL only: %v", err)
		return store.NoopCache{}
	}
	return cache
}

func invalidatePermCache(ctx context.Context, cache store.PermissionCache, orgID string, module models.Module) {
	if orgID == "" {
		return
	}
	if err := cache.Invalidate(ctx, orgID, module); err != nil {
		log.Printf("cache invalidation failed for org %s: %v", orgID, err)
	}
}

// splitList parses a comma-separated flag value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseModule(raw string) (models.Module, error) {
	m := models.Module(raw)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown module %q (want foh or portal)", raw)
	}
	return m.Normalize(), nil
}

// confirm asks the operator before a destructive run. Non-interactive callers
// pass --yes instead.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	driver := fs.String("driver", "postgres", "database driver (postgres, sqlite)")
	dsn := fs.String("dsn", "", "database DSN (defaults to configured RBAC DSN)")
	cmd := fs.String("cmd", "up", "migration command (up, down, status, version, up-to, down-to, redo, reset)")
	target := fs.Int64("target", 0, "target version for up-to/down-to")
	fs.Parse(args)
	if *dsn == "" {
		*dsn = server.GetConfig().RBACDBDSN()
	}
	return migrate.Run(migrate.Options{
		Driver:  *driver,
		DSN:     *dsn,
		Command: *cmd,
		Target:  *target,
		Logger:  log.New(os.Stdout, "[migrate] ", log.LstdFlags),
	})
}

func runProvision(args []string) error {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	module := fs.String("module", "", "module to provision (foh, portal)")
	orgID := fs.String("org", "", "limit to one org id (default all active orgs)")
	force := fs.Bool("force", false, "delete and recreate existing entities")
	skipCategories := fs.Bool("skip-categories", false, "skip the category stage")
	skipTasks := fs.Bool("skip-tasks", false, "skip the task stage")
	skipRoles := fs.Bool("skip-roles", false, "skip the role stage")
	noAssignments := fs.Bool("no-assignments", false, "skip admin role assignments")
	verbose := fs.Bool("verbose", false, "log each entity")
	fs.Parse(args)

	m, err := parseModule(*module)
	if err != nil {
		return err
	}
	cat, err := provision.CatalogFor(m)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	report, err := engine.Provision(context.Background(), cat, provision.Options{
		OrgID:          *orgID,
		Force:          *force,
		SkipCategories: *skipCategories,
		SkipTasks:      *skipTasks,
		SkipRoles:      *skipRoles,
		NoAssignments:  *noAssignments,
		Verbose:        *verbose,
	})
	if err != nil {
		return err
	}
	fmt.Printf("provision run %s (%s)\n", report.RunID, report.Module)
	fmt.Printf("  categories:  %s\n", report.Categories)
	fmt.Printf("  tasks:       %s\n", report.Tasks)
	fmt.Printf("  roles:       %s\n", report.Roles)
	fmt.Printf("  bindings:    %d\n", report.Bindings)
	fmt.Printf("  assignments: %s\n", report.Assignments)
	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

func runCleanup(args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	module := fs.String("module", "", "module to clean up (foh, portal)")
	orgID := fs.String("org", "", "limit to one org id (skips module-global tasks and categories)")
	dryRun := fs.Bool("dry-run", false, "report what would be deleted without deleting")
	rolesOnly := fs.Bool("roles-only", false, "only roles, bindings and assignments")
	tasksOnly := fs.Bool("tasks-only", false, "only tasks and their bindings")
	categoriesOnly := fs.Bool("categories-only", false, "only categories")
	keepCategories := fs.Bool("keep-categories", false, "everything except categories")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.Parse(args)

	m, err := parseModule(*module)
	if err != nil {
		return err
	}
	if !*dryRun && !*yes {
		scope := "all orgs"
		if *orgID != "" {
			scope = "org " + *orgID
		}
		if !confirm(fmt.Sprintf("delete %s catalog data for %s", m, scope)) {
			fmt.Println("aborted")
			return nil
		}
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	report, err := engine.Cleanup(context.Background(), m, provision.CleanupOptions{
		OrgID:          *orgID,
		DryRun:         *dryRun,
		RolesOnly:      *rolesOnly,
		TasksOnly:      *tasksOnly,
		CategoriesOnly: *categoriesOnly,
		KeepCategories: *keepCategories,
	})
	if err != nil {
		return err
	}
	verb := "deleted"
	if report.DryRun {
		verb = "would delete"
	}
	fmt.Printf("cleanup (%s): %s %d assignments, %d bindings, %d roles, %d tasks, %d categories\n",
		report.Module, verb, report.RoleUsers, report.RoleTasks, report.Roles, report.Tasks, report.Categories)
	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

func runCategory(args []string) error {
	fs := flag.NewFlagSet("category", flag.ExitOnError)
	module := fs.String("module", "", "module (foh, portal)")
	name := fs.String("name", "", "category name")
	description := fs.String("description", "", "category description")
	position := fs.Int("position", 0, "1-based position (0 appends)")
	target := fs.String("id", "", "category id or exact name for move/rename/delete")
	newName := fs.String("new-name", "", "new name for rename")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("category: want an action (list, create, move, rename, delete)")
	}
	action := fs.Arg(0)

	m, err := parseModule(*module)
	if err != nil {
		return err
	}
	catStore, _, _, _, err := openDB()
	if err != nil {
		return err
	}
	ctx := context.Background()

	resolveTarget := func() (catalog.Selection, error) {
		sels, err := catStore.Selections(ctx, m)
		if err != nil {
			return catalog.Selection{}, err
		}
		return catalog.Resolve(sels, *target)
	}

	switch action {
	case "list":
		cats, err := catStore.ListOrdered(ctx, m)
		if err != nil {
			return err
		}
		for _, cat := range cats {
			fmt.Printf("%2d. %s (%s)\n", cat.SortOrder, cat.Name, cat.ID)
		}
		return nil
	case "create":
		pos := *position
		if pos == 0 {
			cats, err := catStore.ListOrdered(ctx, m)
			if err != nil {
				return err
			}
			pos = len(cats) + 1
		}
		created, err := catStore.CreateAt(ctx, m, *name, *description, pos)
		if err != nil {
			return err
		}
		fmt.Printf("created category %q at position %d (%s)\n", created.Name, created.SortOrder, created.ID)
		return nil
	case "move":
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		if err := catStore.Move(ctx, m, sel.ID, *position); err != nil {
			return err
		}
		fmt.Printf("moved %q to position %d\n", sel.Label, *position)
		return nil
	case "rename":
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		cats, err := catStore.ListOrdered(ctx, m)
		if err != nil {
			return err
		}
		siblings := make([]catalog.Sibling, len(cats))
		for i, cat := range cats {
			siblings[i] = catalog.Sibling{ID: cat.ID, Name: cat.Name}
		}
		ch, err := catalog.ComputeRename(siblings, sel.ID, *newName, false)
		if err != nil {
			return err
		}
		if err := catStore.ApplyRename(ctx, ch); err != nil {
			return err
		}
		fmt.Printf("renamed %q to %q\n", sel.Label, ch.NewName)
		return nil
	case "delete":
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		if err := catStore.Delete(ctx, m, sel.ID); err != nil {
			return err
		}
		fmt.Printf("deleted category %q; its tasks are now uncategorized\n", sel.Label)
		return nil
	default:
		return fmt.Errorf("category: unknown action %q", action)
	}
}

func runTask(args []string) error {
	fs := flag.NewFlagSet("task", flag.ExitOnError)
	module := fs.String("module", "", "module (foh, portal)")
	name := fs.String("name", "", "task name")
	slug := fs.String("slug", "", "task slug (derived from name when empty)")
	description := fs.String("description", "", "task description")
	categoryToken := fs.String("category", "", "category id or name; \"uncategorized\" detaches")
	target := fs.String("id", "", "task id or exact name for move/rename/recategorize/delete")
	newName := fs.String("new-name", "", "new name for rename")
	position := fs.Int("position", 0, "1-based position for move")
	orgID := fs.String("org", "", "org id for bind")
	addRoles := fs.String("add", "", "comma-separated role names to activate for bind")
	removeRoles := fs.String("remove", "", "comma-separated role names to deactivate for bind")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("task: want an action (list, create, move, rename, recategorize, bind, delete)")
	}
	action := fs.Arg(0)

	m, err := parseModule(*module)
	if err != nil {
		return err
	}
	catStore, taskStore, roleStore, _, err := openDB()
	if err != nil {
		return err
	}
	ctx := context.Background()

	resolveTarget := func() (catalog.Selection, error) {
		sels, err := taskStore.Selections(ctx, m)
		if err != nil {
			return catalog.Selection{}, err
		}
		return catalog.Resolve(sels, *target)
	}

	switch action {
	case "list":
		tasks, err := taskStore.ListByModule(ctx, m)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			cat := catalog.Uncategorized
			if t.CategoryID != nil {
				cat = *t.CategoryID
			}
			fmt.Printf("%s  %-30s category=%s\n", t.Slug, t.Name, cat)
		}
		return nil
	case "create":
		var categoryID *string
		if tok := strings.TrimSpace(*categoryToken); tok != "" && !strings.EqualFold(tok, catalog.Uncategorized) {
			sels, err := catStore.Selections(ctx, m)
			if err != nil {
				return err
			}
			sel, err := catalog.Resolve(sels, tok)
			if err != nil {
				return fmt.Errorf("category %q: %w", tok, err)
			}
			categoryID = &sel.ID
		}
		created, err := taskStore.Create(ctx, m, categoryID, *name, *slug, *description)
		if err != nil {
			return err
		}
		fmt.Printf("created task %q (%s)\n", created.Name, created.Slug)
		return nil
	case "move":
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		if err := taskStore.Move(ctx, m, sel.ID, *position); err != nil {
			return err
		}
		fmt.Printf("moved %q to position %d\n", sel.Label, *position)
		return nil
	case "rename":
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		siblings, err := taskStore.Siblings(ctx, m)
		if err != nil {
			return err
		}
		ch, err := catalog.ComputeRename(siblings, sel.ID, *newName, true)
		if err != nil {
			return err
		}
		if err := taskStore.ApplyRename(ctx, m, ch); err != nil {
			return err
		}
		fmt.Printf("renamed %q to %q (slug %s)\n", sel.Label, ch.NewName, ch.NewSlug)
		return nil
	case "recategorize":
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		cats, err := catStore.Selections(ctx, m)
		if err != nil {
			return err
		}
		ch, err := catalog.ComputeRecategorize(cats, sel.ID, *categoryToken)
		if err != nil {
			return err
		}
		if err := taskStore.ApplyRecategorize(ctx, ch); err != nil {
			return err
		}
		fmt.Printf("recategorized %q\n", sel.Label)
		return nil
	case "bind":
		if *orgID == "" {
			return fmt.Errorf("task bind: --org is required")
		}
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		refs, err := roleStore.RoleRefs(ctx, *orgID, m)
		if err != nil {
			return err
		}
		changes, missing, err := catalog.ComputeBindingChanges(refs, sel.ID, splitList(*addRoles), splitList(*removeRoles))
		if err != nil {
			return err
		}
		if err := roleStore.ApplyBindingChanges(ctx, changes); err != nil {
			return err
		}
		cache := newCache()
		defer cache.Close()
		invalidatePermCache(ctx, cache, *orgID, m)
		for _, name := range missing {
			fmt.Printf("  warning: no role named %q\n", name)
		}
		fmt.Printf("updated %d bindings for task %q\n", len(changes), sel.Label)
		return nil
	case "delete":
		sel, err := resolveTarget()
		if err != nil {
			return err
		}
		if err := taskStore.Delete(ctx, m, sel.ID); err != nil {
			return err
		}
		fmt.Printf("deleted task %q and its role bindings\n", sel.Label)
		return nil
	default:
		return fmt.Errorf("task: unknown action %q", action)
	}
}

func runRole(args []string) error {
	fs := flag.NewFlagSet("role", flag.ExitOnError)
	module := fs.String("module", "", "module (foh, portal)")
	orgID := fs.String("org", "", "org id")
	target := fs.String("id", "", "role id or exact name")
	taskToken := fs.String("task", "", "task id or exact name for toggle")
	active := fs.Bool("active", true, "binding state for toggle")
	userID := fs.String("user", "", "org user id for assign/remove")
	force := fs.Bool("force", false, "force semantics for assign/delete")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("role: want an action (list, toggle, assign, remove, delete)")
	}
	action := fs.Arg(0)

	m, err := parseModule(*module)
	if err != nil {
		return err
	}
	_, taskStore, roleStore, ruStore, err := openDB()
	if err != nil {
		return err
	}
	ctx := context.Background()
	cache := newCache()
	defer cache.Close()

	resolveRole := func() (catalog.Selection, error) {
		roles, err := roleStore.ListByOrg(ctx, *orgID, m)
		if err != nil {
			return catalog.Selection{}, err
		}
		sels := make([]catalog.Selection, len(roles))
		for i, r := range roles {
			sels[i] = catalog.Selection{ID: r.ID, Label: r.Name}
		}
		return catalog.Resolve(sels, *target)
	}

	switch action {
	case "list":
		roles, err := roleStore.ListByOrg(ctx, *orgID, m)
		if err != nil {
			return err
		}
		for _, r := range roles {
			flags := ""
			if r.IsFixed {
				flags += " fixed"
			}
			if r.IsRequired {
				flags += " required"
			}
			fmt.Printf("%2d. %s (%s)%s\n", r.SortOrder, r.Name, r.ID, flags)
		}
		return nil
	case "toggle":
		sel, err := resolveRole()
		if err != nil {
			return err
		}
		taskSels, err := taskStore.Selections(ctx, m)
		if err != nil {
			return err
		}
		taskSel, err := catalog.Resolve(taskSels, *taskToken)
		if err != nil {
			return fmt.Errorf("task %q: %w", *taskToken, err)
		}
		if err := roleStore.SetTaskActive(ctx, sel.ID, taskSel.ID, *active); err != nil {
			return err
		}
		invalidatePermCache(ctx, cache, *orgID, m)
		fmt.Printf("role %q task %q active=%v\n", sel.Label, taskSel.Label, *active)
		return nil
	case "assign":
		sel, err := resolveRole()
		if err != nil {
			return err
		}
		_, created, err := ruStore.Assign(ctx, *orgID, sel.ID, *userID, m, *force)
		if err != nil {
			return err
		}
		invalidatePermCache(ctx, cache, *orgID, m)
		if created {
			fmt.Printf("assigned user %s to role %q\n", *userID, sel.Label)
		} else {
			fmt.Printf("user %s already holds role %q\n", *userID, sel.Label)
		}
		return nil
	case "remove":
		sel, err := resolveRole()
		if err != nil {
			return err
		}
		if err := ruStore.Remove(ctx, sel.ID, *userID); err != nil {
			return err
		}
		invalidatePermCache(ctx, cache, *orgID, m)
		fmt.Printf("removed user %s from role %q\n", *userID, sel.Label)
		return nil
	case "delete":
		sel, err := resolveRole()
		if err != nil {
			return err
		}
		if err := roleStore.Delete(ctx, sel.ID, *force); err != nil {
			return err
		}
		invalidatePermCache(ctx, cache, *orgID, m)
		fmt.Printf("deleted role %q\n", sel.Label)
		return nil
	default:
		return fmt.Errorf("role: unknown action %q", action)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", "", "listen address (defaults to configured)")
	fs.Parse(args)

	cfg := server.GetConfig()
	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := *listen
	if addr == "" {
		addr = cfg.Listen
	}
	srv.Logger.Printf("listening on %s", addr)
	return server.NewGinEngine(srv).Run(addr)
}
