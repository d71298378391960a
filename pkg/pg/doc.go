// Package pg bootstraps PostgreSQL access on top of pgx/v5: a pooled
// connection with startup retry, goose migrations applied from an embedded
// filesystem, a healthcheck closure and SQLSTATE helpers.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
//		return err
//	}
package pg
