// Package notify pushes subscription changes to a user's live connections.
//
// Delivery is best effort; the status query stays the source of truth. A
// client that reconnects after missing a push refreshes its state from
// there.
//
// # Hub
//
// Hub keeps one broadcaster per connected user in a bounded LRU. Each
// connection has its own buffered queue; a connection that falls a full
// buffer behind is closed instead of blocking the sender. The last
// disconnect of a user forgets the user, and evicting a user from the LRU
// closes all of that user's connections. Messages for users without an
// open connection are dropped.
//
//	var cfg notify.Config // NOTIFY_MAX_USERS, NOTIFY_BUFFER_SIZE
//	config.MustLoad(&cfg)
//
//	hub := notify.NewHub(append(notify.FromConfig(cfg), notify.WithLogger(log))...)
//	defer hub.Close()
//
//	sub := hub.Subscribe(r.Context(), userID)
//	for msg := range sub.Receive() {
//	    // write msg.Data to the SSE stream
//	}
//
// # Multiple instances
//
// RedisRelay publishes through a redis channel and feeds what it receives
// into the local hub, so every instance delivers to the connections it
// holds. The relay is itself a Notifier and replaces the hub on the
// publishing side:
//
//	relay := notify.NewRedisRelay(client, "subsync:notify", hub, log)
//	go relay.Run(ctx)
//	engine, err := reconcile.New(deps, reconcile.WithNotifier(relay))
//
// # Messages
//
// SubscriptionUpdated builds the message for a committed record. It carries
// the status and the expiry (trial end or paid period end), never provider
// identifiers.
package notify
