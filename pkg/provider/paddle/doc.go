// Package paddle adapts Paddle Billing webhooks and APIs to the provider
// boundary.
//
// Paddle embeds full subscription and transaction objects in its
// notifications, so translation never calls back into the API. The internal
// user id travels in custom_data.user_id, set when the checkout transaction
// is created.
package paddle
