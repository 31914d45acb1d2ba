// Package flowstore keeps named graph specifications in a NATS JetStream
// key-value bucket.
//
// A graph is stored as the JSON form of types.GraphSpec under its name.
// Save runs the structural checks of GraphSpec.Validate first; capability
// and wiring checks need component instances and are left to the engine.
// The bucket keeps ten revisions per key, and Update stores only when the
// caller's revision is still current:
//
//	store, err := flowstore.NewStore(ctx, natsClient, "", logger)
//	rev, err := store.Save(ctx, "plant-a", spec)
//	_, err = store.Update(ctx, "plant-a", edited, rev)
//
// Watch follows one key, starting with its current value. The host uses it
// to reconfigure a running manager whenever the stored graph changes,
// skipping revisions it has already applied:
//
//	go store.Watch(ctx, "plant-a", func(c flowstore.Change) {
//		if !c.Deleted && c.Revision > applied {
//			applied = c.Revision
//			_ = manager.Reconfigure(ctx, c.Spec)
//		}
//	})
package flowstore
