// Package mqtt publishes KRAC devices to Home Assistant over MQTT.
//
// Client wraps the paho client with a last-will availability message
// and resubscription after reconnects. ClimateDiscovery is the Home
// Assistant MQTT discovery payload for a climate entity, published
// retained under <discovery_prefix>/climate/<deviceID>/config.
// ClimateBinding ties a climate.AirConditioner to the broker: state
// facets out on <prefix>/<deviceID>/<facet>, commands in on the
// matching /set topics.
package mqtt
