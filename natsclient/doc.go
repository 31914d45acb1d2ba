// Package natsclient wraps a NATS connection with status tracking, structured
// logging and JetStream key-value helpers.
//
// The flow store keeps graph specifications in a KV bucket and the event
// forwarder publishes engine events on plain subjects; both share one Client:
//
//	client, err := natsclient.NewClient(cfg.NATS.URL, natsclient.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "wirestreams_graphs"})
//
// Connection state moves Disconnected → Connecting → Connected, then between
// Connected and Reconnecting as the server comes and goes, and finally to
// Closed. WithHealthChangeCallback reports every transition into or out of
// Connected.
//
// # Testing
//
// NewTestClient starts a NATS container with testcontainers-go and returns a
// connected client. Tests that use it carry the integration build tag:
//
//	tc := natsclient.NewTestClient(t, natsclient.WithKVBuckets("graphs"))
//	store, err := flowstore.NewStore(ctx, tc.Client, "graphs")
package natsclient
