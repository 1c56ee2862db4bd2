package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{Subject: "vibe.report"}
	c := (*natsHeaderCarrier)(msg)

	if got := c.Get("traceparent"); got != "" {
		t.Errorf("Get on empty headers = %q", got)
	}
	if keys := c.Keys(); keys != nil {
		t.Errorf("Keys on empty headers = %v", keys)
	}

	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Errorf("Get = %q", got)
	}
	if keys := c.Keys(); len(keys) != 1 {
		t.Errorf("Keys = %v", keys)
	}
	if msg.Header.Get("traceparent") == "" {
		t.Error("header not written through to message")
	}
}
