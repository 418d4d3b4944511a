// Package redis opens go-redis clients with retry and exposes a readiness
// check.
//
// The client backs three concerns when the matching backend is selected:
// usage counters (USAGE_BACKEND=redis), the in-flight event lock
// (LOCK_BACKEND=redis) and the cross-instance notification relay
// (NOTIFY_REDIS_CHANNEL).
//
// Configuration is described by the Config struct whose fields are
// populated from environment variables via github.com/caarlos0/env:
//
//	REDIS_URL              connection URL, default redis://localhost:6379/0
//	REDIS_RETRY_ATTEMPTS   ping attempts before giving up
//	REDIS_RETRY_INTERVAL   pause between attempts
//	REDIS_CONNECT_TIMEOUT  overall budget for becoming ready
//
// # Usage
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	counter := redisstore.NewCounter(client)
//	locker := redisstore.NewLocker(client, log)
//
// Register the health check with the readiness handler:
//
//	check := httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)}
//
// # Errors
//
// ErrFailedToParseRedisConnString is returned for a malformed URL,
// ErrRedisNotReady when the server never answered a ping within the retry
// budget and ErrHealthcheckFailed from the readiness check. Driver errors
// are joined with them using errors.Join.
package redis
