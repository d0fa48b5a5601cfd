// Package mqtt publishes keygate security events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS guarantees and bounded waits
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Topics
//
// Every topic lives under a configurable prefix (default "keygate"):
//
//	keygate/system/status          retained online/offline status
//	keygate/events/<event type>    one message per security event
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishEvent("authorization.denied", payload)
//
// MQTT is optional. When disabled, keygate still records events in the
// audit log and streams them over WebSocket.
package mqtt
