// Package seed fills a fresh database with demo accounts and data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/existflow/taskhub/internal/model"
	"github.com/existflow/taskhub/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Demo account credentials
const (
	DemoEmail    = "demo@taskmanager.com"
	DemoPassword = "demo12345"
)

// ErrAlreadySeeded is returned when the demo account exists
var ErrAlreadySeeded = errors.New("database already seeded")

type account struct {
	name, email, password string
}

var accounts = []account{
	{"Demo User", DemoEmail, DemoPassword},
	{"Jordan Lee", "jordan@taskmanager.com", "password123"},
	{"Sam Rivera", "sam@taskmanager.com", "password123"},
}

var projectTemplates = []struct{ name, description string }{
	{"Website Redesign", "Complete website redesign project"},
	{"Mobile App Development", "Build cross-platform mobile application"},
	{"API Integration", "Integrate third-party APIs"},
	{"Database Migration", "Migrate from MySQL to PostgreSQL"},
	{"Performance Optimization", "Improve application performance"},
	{"Security Audit", "Conduct comprehensive security review"},
	{"Documentation Update", "Update technical documentation"},
	{"Testing Automation", "Implement automated testing pipeline"},
	{"UI/UX Improvements", "Enhance user interface and experience"},
	{"DevOps Setup", "Setup CI/CD pipeline and infrastructure"},
}

var tagNames = []string{"urgent", "backend", "frontend", "bug", "feature", "api", "database", "ui", "testing", "security"}

var taskTemplates = []struct {
	title, description string
	status             model.Status
}{
	{"Setup project structure", "Initialize project with proper folder structure", model.StatusDone},
	{"Configure development environment", "Setup local development environment", model.StatusDone},
	{"Create database schema", "Design and implement database tables", model.StatusDone},
	{"Implement authentication", "Add user login and registration", model.StatusInProgress},
	{"Design user interface", "Create UI mockups and prototypes", model.StatusInProgress},
	{"Write API endpoints", "Implement RESTful API endpoints", model.StatusInProgress},
	{"Add validation rules", "Implement form validation", model.StatusTodo},
	{"Write unit tests", "Create comprehensive test suite", model.StatusTodo},
	{"Implement error handling", "Add proper error handling and logging", model.StatusTodo},
	{"Optimize queries", "Improve database query performance", model.StatusTodo},
	{"Add caching layer", "Implement Redis caching", model.StatusTodo},
	{"Security hardening", "Review and fix security vulnerabilities", model.StatusTodo},
	{"Code review", "Review code for best practices", model.StatusTodo},
	{"Performance testing", "Conduct load and stress testing", model.StatusTodo},
	{"Documentation", "Write API and user documentation", model.StatusTodo},
	{"Deployment setup", "Configure production environment", model.StatusTodo},
	{"Monitoring setup", "Setup application monitoring", model.StatusTodo},
	{"Bug fixes", "Fix reported bugs and issues", model.StatusInProgress},
	{"Feature enhancements", "Implement new feature requests", model.StatusTodo},
	{"Refactoring", "Refactor legacy code", model.StatusTodo},
	{"Integration testing", "Test integration with third-party services", model.StatusTodo},
	{"Accessibility improvements", "Ensure WCAG compliance", model.StatusTodo},
	{"Responsive design", "Make UI responsive for all devices", model.StatusInProgress},
	{"Backup strategy", "Implement automated backup system", model.StatusTodo},
	{"Data migration", "Migrate data from old system", model.StatusTodo},
	{"User feedback", "Collect and analyze user feedback", model.StatusTodo},
	{"Analytics integration", "Add analytics tracking", model.StatusTodo},
	{"Email notifications", "Implement email notification system", model.StatusTodo},
	{"Payment integration", "Integrate payment gateway", model.StatusTodo},
	{"Final review", "Final review before deployment", model.StatusTodo},
}

// tasks from this index on are created without a project
const tasksWithProject = 25

// Options tunes a seeding run
type Options struct {
	Rand       *rand.Rand       // Source for due dates and tag picks
	Now        func() time.Time // Reference for due date offsets
	BcryptCost int              // Zero means bcrypt.DefaultCost
}

// Result counts what Run created
type Result struct {
	Users, Projects, Tags, Tasks int
}

// Run creates three users, each with ten projects, ten tags and thirty tasks.
// It refuses to run twice on the same database.
func Run(ctx context.Context, st *store.Store, opts Options) (Result, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	if _, err := st.FindUserByEmail(ctx, DemoEmail); err == nil {
		return Result{}, ErrAlreadySeeded
	} else if !errors.Is(err, store.ErrNotFound) {
		return Result{}, err
	}

	var res Result
	for _, acc := range accounts {
		logger.Info("Seeding user", logger.F("email", acc.email))

		hash, err := bcrypt.GenerateFromPassword([]byte(acc.password), opts.BcryptCost)
		if err != nil {
			return res, fmt.Errorf("hash password: %w", err)
		}
		user, err := st.CreateUser(ctx, acc.name, acc.email, string(hash))
		if err != nil {
			return res, fmt.Errorf("create user %s: %w", acc.email, err)
		}
		res.Users++

		projects := make([]int64, 0, len(projectTemplates))
		for _, tpl := range projectTemplates {
			desc := tpl.description
			p, err := st.CreateProject(ctx, user.ID, tpl.name, &desc)
			if err != nil {
				return res, fmt.Errorf("create project: %w", err)
			}
			projects = append(projects, p.ID)
			res.Projects++
		}

		ids, err := st.ReconcileTags(ctx, user.ID, tagNames)
		if err != nil {
			return res, fmt.Errorf("create tags: %w", err)
		}
		res.Tags += len(ids)

		for i, tpl := range taskTemplates {
			desc := tpl.description
			status := tpl.status
			due := opts.Now().AddDate(0, 0, opts.Rand.Intn(41)-10)
			in := model.NewTask{
				UserID:      user.ID,
				Title:       tpl.title,
				Description: &desc,
				DueDate:     &due,
				Status:      &status,
				Tags:        pickTags(opts.Rand, 1+opts.Rand.Intn(3)),
			}
			if i < tasksWithProject {
				in.ProjectID = &projects[i%len(projects)]
			}
			if _, err := st.CreateTask(ctx, in); err != nil {
				return res, fmt.Errorf("create task %q: %w", tpl.title, err)
			}
			res.Tasks++
		}
	}

	logger.Info("Seeding completed",
		logger.F("users", res.Users),
		logger.F("projects", res.Projects),
		logger.F("tags", res.Tags),
		logger.F("tasks", res.Tasks))
	return res, nil
}

// pickTags returns n distinct tag names in random order
func pickTags(r *rand.Rand, n int) []string {
	perm := r.Perm(len(tagNames))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = tagNames[perm[i]]
	}
	return out
}
