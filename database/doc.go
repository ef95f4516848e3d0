// Package database provides a GORM-based database component with connection
// pooling, retry on connect, health checks, transactions and plugin
// installation.
//
// The component opens sqlite by default. Other drivers are supplied through
// WithDriver, keeping the package free of driver choices:
//
//	enc, _ := encryption.NewFromConfig(cfg.Encryption)
//	db := database.NewComponent(cfg.Database, log).
//		WithPlugin(gormcrypt.New(enc, gormcrypt.WithLogger(log))).
//		WithAutoMigrate(&Patient{})
//	if err := db.Start(ctx); err != nil {
//		return err
//	}
//	defer db.Stop(ctx)
//
// The GORM logger adapter strips bound parameters from traced SQL unless
// Config.LogParams is set, so plaintext search values do not reach logs.
//
// When Config.Enabled is false, Start returns immediately and Health reports
// the component as disabled.
package database
