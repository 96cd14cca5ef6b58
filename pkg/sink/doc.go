// Package sink delivers generated records somewhere other than a file.
//
// A Sink accepts one record at a time. Pump draws records from a Source,
// paces them with a rate limiter and hands them to a Sink. MQTTPublisher
// publishes each record as a JSON message; WriterSink writes NDJSON.
package sink
