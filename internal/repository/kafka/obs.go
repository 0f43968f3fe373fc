package kafka

import "github.com/segmentio/kafka-go"

// headerCarrier and kafkaHeaders adapt message headers to the otel propagator.
type headerCarrier map[string]string

func (m headerCarrier) Get(k string) string { return m[k] }
func (m headerCarrier) Set(k, v string)     { m[k] = v }
func (m headerCarrier) Keys() []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func (m headerCarrier) ToKafka() []kafka.Header {
	hs := make([]kafka.Header, 0, len(m))
	for k, v := range m {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(v)})
	}
	return hs
}

type kafkaHeaders []kafka.Header

func (h kafkaHeaders) Get(k string) string {
	for _, x := range h {
		if x.Key == k {
			return string(x.Value)
		}
	}
	return ""
}

func (h kafkaHeaders) Set(string, string) {}

func (h kafkaHeaders) Keys() []string {
	ks := make([]string, 0, len(h))
	for _, x := range h {
		ks = append(ks, x.Key)
	}
	return ks
}
