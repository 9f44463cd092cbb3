// Package config provides configuration parsing for reactor.
//
// The configuration is stored in reactor.yaml. Every field is optional;
// missing fields keep their defaults. Unknown keys are rejected so typos
// surface as errors.
//
// # Configuration File Structure
//
//	engine:
//	  max_depth: 256
//	  max_runs_per_tick: 10000
//	  owner_check: false
//	log:
//	  level: info      # debug | info | warn | error
//	  format: text     # text | json
//	serve:
//	  addr: ":7070"
//	  metrics_path: /metrics
//	tracing:
//	  enabled: false
//	  tracer_name: reactor
//
// Watch reloads the file when it changes; the serve command uses it to
// adjust the log level of a running server.
package config
