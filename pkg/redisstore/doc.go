// Package redisstore keeps usage counters and the in-flight event lock in
// redis so several instances share them.
//
// # Counter
//
// Counter implements usage.Counter on plain string keys of the form
//
//	<prefix>:<yyyy-mm-dd>:<user id>
//
// Increment is INCR followed by EXPIRE in one MULTI/EXEC pipeline, so a counter never
// outlives the retention window (48h by default). Keys of past days are
// never read again and simply expire.
//
//	counter := redisstore.NewCounter(client,
//	    redisstore.WithCounterPrefix("usage:images"),
//	    redisstore.WithRetention(72*time.Hour),
//	)
//	tracker, err := usage.NewTracker(ctx, counter, cfg)
//
// # Locker
//
// Locker implements reconcile.Locker with SET NX PX and a random token. The
// returned release func deletes the key only while it still holds that
// token, so a lease that expired and was taken by another instance is left
// alone.
//
//	locker := redisstore.NewLocker(client, log)
//	release, ok, err := locker.TryLock(ctx, "stripe:evt_1", 30*time.Second)
//	if err != nil || !ok {
//	    return err
//	}
//	defer release()
//
// Failures are joined with ErrCounter or ErrLock.
package redisstore
