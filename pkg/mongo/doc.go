// Package mongo opens MongoDB clients with retry for the event ledger.
//
// The package wraps the official mongo-driver v2 client and adds:
//
//   - New, which pings the deployment and retries the connection using the
//     supplied configuration.
//   - Healthcheck, a readiness check that pings the deployment.
//
// Configuration is described by the Config struct whose fields are
// populated from environment variables (MONGODB_URL, MONGODB_DATABASE,
// pool sizes and retry settings) via github.com/caarlos0/env.
//
// # Usage
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Disconnect(context.Background())
//
//	store := mongostore.NewLedgerStore(client.Database(cfg.Database), mongostore.DefaultCollection)
//
// Register the health check with the readiness handler:
//
//	check := httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(client)}
//
// # Errors
//
// ErrFailedToConnectToMongo is returned once every attempt failed and
// ErrHealthcheckFailed when a ping fails. Both are joined with the driver
// error, so errors.Is works on either.
package mongo
