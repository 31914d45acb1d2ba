// Package config loads the host configuration.
//
// Configuration is merged from three sources, later ones winning:
//
//  1. Default()
//  2. file layers added to a Loader, JSON or YAML by extension, merged key
//     by key (lists such as graph components are replaced whole)
//  3. WIRESTREAMS_* environment variables
//
// Example:
//
//	loader := config.NewLoader()
//	loader.AddLayer("wirestreams.yaml")
//	cfg, err := loader.Load()
//
// # Files
//
//	log:
//	  level: info
//	  format: json
//	metrics:
//	  port: 9090
//	  path: /metrics
//	database:
//	  driver: sqlite
//	  dsn: /var/lib/wirestreams/data.db
//	nats:
//	  url: nats://localhost:4222
//	  graph_key: plant-a
//	  reconnect_wait: 2s
//	graph:
//	  components:
//	    - id: avg
//	      kind: math-transform
//	      properties: {parameter.name: temperature, window.size: 5}
//	    - id: store
//	      kind: record-store
//	  wires:
//	    - {from: avg, from_port: 0, to: store, to_port: 0}
//
// # Environment
//
// WIRESTREAMS_LOG_LEVEL, WIRESTREAMS_LOG_FORMAT, WIRESTREAMS_METRICS_PORT,
// WIRESTREAMS_METRICS_PATH, WIRESTREAMS_DATABASE_DRIVER,
// WIRESTREAMS_DATABASE_DSN, WIRESTREAMS_NATS_URL, WIRESTREAMS_NATS_BUCKET,
// WIRESTREAMS_NATS_GRAPH_KEY and WIRESTREAMS_NATS_EVENT_SUBJECT override the
// matching fields.
//
// # Reloading
//
// Watcher follows the loader's files with fsnotify and hands each
// successfully reloaded Config to a callback; the host reconfigures its
// manager with the new graph. SafeConfig holds the current configuration
// for concurrent readers.
package config
