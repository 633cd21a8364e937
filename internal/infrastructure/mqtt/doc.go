// Package mqtt provides the MQTT bus client for the bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained liveness on <base>/status (last will "offline", "online" on
//     every connect, "offline" on graceful close)
//   - Topic subscriptions restored after a reconnect
//   - The topic tree shared by the publisher and the command router (Topics)
//
// # Topic tree
//
//	<base>/status                                   online | offline
//	<base>/<category>/<short_id>/<field>            per-entity state
//	<base>/<category>/<field>                       category scalars
//	<base>/<category>/command                       category-global command
//	<base>/<category>/<short_id>/command            per-entity command
//	<base>/<category>/<short_id>/<field>/set        per-entity value
//	<base>/groups/<category>/set|state              gate toggle and state
//	<prefix>/<component>/jellyfin_<server>_<object>/config   discovery
//
// # Usage
//
//	topics := mqtt.NewTopics(cfg.MQTT.Topic, cfg.MQTT.DiscoveryPrefix, cfg.ServerID())
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.SetOnConnect(sched.RequestReannounce)
//	err = client.SubscribeAll(topics.Subscriptions(), 1, sched.Deliver)
package mqtt
