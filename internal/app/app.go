package app

import (
	"database/sql"

	"todoline/internal/config"
	"todoline/internal/db"
	"todoline/internal/engine"
	"todoline/internal/migrate"
	"todoline/internal/repo"
)

// App bundles the components wired behind one workspace.
type App struct {
	DB     *sql.DB
	Repo   repo.Repo
	Engine engine.Engine
	Config *config.Config
}

// Open opens and migrates the workspace database and wires the engine on
// top of it. A missing config file falls back to defaults; a present but
// invalid one is an error. An empty workspace defers to the config file's
// workspace setting, then to the current directory.
func Open(workspace string) (*App, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if workspace == "" && cfg.Workspace != "" {
		workspace = cfg.Workspace
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	r := repo.Repo{DB: conn}
	return &App{
		DB:     conn,
		Repo:   r,
		Engine: engine.New(r),
		Config: cfg,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
