// Package config provides configuration parsing for the event server.
//
// The configuration is stored in eventserver.yaml (or eventserver.json).
// This package handles loading, saving, validating and reloading it.
//
// # Configuration File Structure
//
//	services:
//	  esport: 9777
//	  esportrange: 10
//	  esmaxclients: 20
//	  esallinterfaces: false
//	  esinitialdelay: 750ms
//	  escontinuousdelay: 25ms
//	server:
//	  poll_interval: 1s
//	  client_timeout: 60s
//	  reassembly_timeout: 5s
//	  disable_ipv6: false
//	status:
//	  enabled: true
//	  addr: 127.0.0.1:9778
//	log:
//	  level: info
//	  format: text
//
// Durations accept Go duration strings or a bare integer of milliseconds.
//
// # Loading Configuration
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	store := config.NewStore(cfg)
//	srv := server.New(store.ServerConfig(logger, nil))
//
// Store.Reload re-reads the file; follow it with Server.RefreshSettings to
// apply new repeat delays to live clients.
package config
